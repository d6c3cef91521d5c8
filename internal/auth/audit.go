package auth

import (
	"context"
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
	"github.com/inkset/inkwell/internal/logutil"
	"github.com/inkset/inkwell/internal/store"
)

// Audit action tags, stable wire-level values.
const (
	ActionLogin        = "login"
	ActionLogout       = "logout"
	ActionRegister     = "register"
	ActionFailedLogin  = "failed_login"
	ActionRoleUpdate   = "role_update"
	ActionStatusUpdate = "status_update"
)

type (
	// Recorder appends audit entries. Recording is best-effort: a failed
	// write is logged and swallowed, it never fails the operation that
	// triggered it.
	Recorder struct {
		store *store.Store
		now   func() time.Time
	}

	// Event describes one security-relevant action. Actor is nil for
	// events with no authenticated account behind them.
	Event struct {
		Actor     *int64
		Action    string
		TableName string
		RecordID  *int64
		OldValues interface{}
		NewValues interface{}
		IP        string
		UserAgent string
	}
)

func NewRecorder(st *store.Store) *Recorder {
	return &Recorder{store: st, now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, ev Event) {
	entry := store.AuditEntry{
		Action:    ev.Action,
		TableName: ev.TableName,
		IPAddress: ev.IP,
		UserAgent: ev.UserAgent,
		CreatedAt: r.now(),
	}
	if ev.Actor != nil {
		entry.UserID = sql.NullInt64{Int64: *ev.Actor, Valid: true}
	}
	if ev.RecordID != nil {
		entry.RecordID = sql.NullInt64{Int64: *ev.RecordID, Valid: true}
	}
	logger := logutil.GetOrDefault(ctx)
	var err error
	if entry.OldValues, err = marshalValues(ev.OldValues); err != nil {
		logger.Error().Err(err).Str("audit.action", ev.Action).Msg("Unable to encode audit old values")
	}
	if entry.NewValues, err = marshalValues(ev.NewValues); err != nil {
		logger.Error().Err(err).Str("audit.action", ev.Action).Msg("Unable to encode audit new values")
	}
	if err := r.store.InsertAuditEntry(ctx, entry); err != nil {
		logger.Error().Err(err).Str("audit.action", ev.Action).Msg("Unable to write audit entry")
	}
}

func marshalValues(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(buf), Valid: true}, nil
}
