package auth

type (
	// Role is the closed set of account roles. The zero value is not a
	// valid role and always loses permission checks.
	Role uint8

	// Status is the closed set of account statuses. Only active accounts
	// may authenticate.
	Status uint8
)

const (
	RoleUnknown Role = iota
	RoleSubscriber
	RoleAuthor
	RoleEditor
	RoleAdmin
)

const (
	StatusUnknown Status = iota
	StatusActive
	StatusInactive
	StatusBanned
)

// Roles lists the valid roles in hierarchy order, lowest first.
var Roles = []Role{RoleSubscriber, RoleAuthor, RoleEditor, RoleAdmin}

// Statuses lists the valid account statuses.
var Statuses = []Status{StatusActive, StatusInactive, StatusBanned}

func ParseRole(s string) (Role, bool) {
	switch s {
	case "subscriber":
		return RoleSubscriber, true
	case "author":
		return RoleAuthor, true
	case "editor":
		return RoleEditor, true
	case "admin":
		return RoleAdmin, true
	}
	return RoleUnknown, false
}

func (r Role) String() string {
	switch r {
	case RoleSubscriber:
		return "subscriber"
	case RoleAuthor:
		return "author"
	case RoleEditor:
		return "editor"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// Level is the ordinal of the role in the hierarchy. Unknown roles sit at
// level 0 and are denied everything.
func (r Role) Level() int {
	if r > RoleAdmin {
		return 0
	}
	return int(r)
}

// AtLeast reports whether r satisfies a check requiring required.
func (r Role) AtLeast(required Role) bool {
	return r.Level() >= required.Level() && required != RoleUnknown
}

// CanModifyPost decides post edit/delete access: editors and admins may
// touch any post, authors only their own, everyone else nothing.
func CanModifyPost(postAuthorID, actorID int64, actor Role) bool {
	switch actor {
	case RoleAdmin, RoleEditor:
		return true
	case RoleAuthor:
		return postAuthorID == actorID
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	switch s {
	case "active":
		return StatusActive, true
	case "inactive":
		return StatusInactive, true
	case "banned":
		return StatusBanned, true
	}
	return StatusUnknown, false
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusBanned:
		return "banned"
	}
	return "unknown"
}
