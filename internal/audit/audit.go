// Package audit emits structured audit events for security-relevant
// actions. Events go through the standard logger so they share the
// request correlation fields.
package audit

import (
	"context"

	applog "github.com/liqtags/relaychat/pkg/log"
)

// Audit actions.
const (
	ActionRegister    = "auth.register"
	ActionLogin       = "auth.login"
	ActionLoginFailed = "auth.login_failed"
	ActionRefresh     = "auth.refresh"
	ActionLogout      = "auth.logout"
	ActionConnect     = "chat.connect"
	ActionDisconnect  = "chat.disconnect"
	ActionMessage     = "chat.message"
	ActionUpload      = "file.upload"
)

// Log records an audit event for the given user.
func Log(ctx context.Context, action, userID string) {
	applog.Ctx(ctx).Info().
		Str(applog.FieldLogType, applog.LogTypeAudit).
		Str("action", action).
		Str(applog.FieldUserID, userID).
		Msg("audit event")
}

// LogWithDetail records an audit event with one extra key/value.
func LogWithDetail(ctx context.Context, action, userID, key, value string) {
	applog.Ctx(ctx).Info().
		Str(applog.FieldLogType, applog.LogTypeAudit).
		Str("action", action).
		Str(applog.FieldUserID, userID).
		Str(key, value).
		Msg("audit event")
}
