package domain

import "time"

// AuditAction names an authentication or administration event.
type AuditAction string

const (
	AuditRegister       AuditAction = "register"
	AuditLoginSuccess   AuditAction = "login_success"
	AuditLoginFailure   AuditAction = "login_failure"
	AuditAccountLocked  AuditAction = "account_locked"
	AuditLogout         AuditAction = "logout"
	AuditTokenRefresh   AuditAction = "token_refresh"
	AuditPasswordChange AuditAction = "password_change"
	AuditProfileUpdate  AuditAction = "profile_update"
	AuditStatusChange   AuditAction = "status_change"
	AuditRoleChange     AuditAction = "role_change"
	AuditUserDeleted    AuditAction = "user_deleted"
)

// AuditEvent is an append-only record of something that happened to an account.
type AuditEvent struct {
	Action    AuditAction
	UserID    string // subject account, may be empty for unknown emails
	Email     string
	ActorID   string // admin performing the action, empty for self-service
	Detail    string
	Timestamp time.Time
}
