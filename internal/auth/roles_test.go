package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleHierarchyMonotonic(t *testing.T) {
	for i, required := range Roles {
		for j, actual := range Roles {
			want := j >= i
			assert.Equal(t, want, actual.AtLeast(required),
				"AtLeast(%v, %v)", required, actual)
		}
	}
}

func TestRoleHierarchyExamples(t *testing.T) {
	assert.False(t, RoleAuthor.AtLeast(RoleEditor))
	assert.True(t, RoleEditor.AtLeast(RoleAuthor))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
}

func TestUnknownRoleAlwaysDenied(t *testing.T) {
	assert.Equal(t, 0, RoleUnknown.Level())
	for _, required := range Roles {
		assert.False(t, RoleUnknown.AtLeast(required))
	}
	// an unknown requirement never grants access either
	assert.False(t, RoleAdmin.AtLeast(RoleUnknown))
}

func TestParseRoleClosed(t *testing.T) {
	for _, role := range Roles {
		parsed, ok := ParseRole(role.String())
		assert.True(t, ok)
		assert.Equal(t, role, parsed)
	}
	for _, raw := range []string{"", "superadmin", "Admin", "root"} {
		parsed, ok := ParseRole(raw)
		assert.False(t, ok, "ParseRole(%q)", raw)
		assert.Equal(t, RoleUnknown, parsed)
	}
}

func TestParseStatusClosed(t *testing.T) {
	for _, status := range Statuses {
		parsed, ok := ParseStatus(status.String())
		assert.True(t, ok)
		assert.Equal(t, status, parsed)
	}
	_, ok := ParseStatus("suspended")
	assert.False(t, ok)
}

func TestCanModifyPost(t *testing.T) {
	cases := []struct {
		name    string
		ownerID int64
		actorID int64
		role    Role
		want    bool
	}{
		{"author owns post", 7, 7, RoleAuthor, true},
		{"author other post", 7, 9, RoleAuthor, false},
		{"admin any post", 7, 9, RoleAdmin, true},
		{"editor any post", 7, 9, RoleEditor, true},
		{"subscriber other post", 7, 9, RoleSubscriber, false},
		{"subscriber own post", 7, 7, RoleSubscriber, false},
		{"unknown role", 7, 7, RoleUnknown, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanModifyPost(tc.ownerID, tc.actorID, tc.role))
		})
	}
}
