package domain

import "time"

// AuditKind names a security-relevant action.
type AuditKind string

const (
	AuditLoginSucceeded    AuditKind = "login_succeeded"
	AuditLoginFailed       AuditKind = "login_failed"
	AuditLogout            AuditKind = "logout"
	AuditUserRegistered    AuditKind = "user_registered"
	AuditPasswordChanged   AuditKind = "password_changed"
	AuditAssignmentCreated AuditKind = "assignment_created"
	AuditAssignmentRemoved AuditKind = "assignment_removed"
	AuditAssignmentRoleSet AuditKind = "assignment_role_changed"
	AuditAccessDenied      AuditKind = "access_denied"
	AuditProjectCreated    AuditKind = "project_created"
	AuditProjectArchived   AuditKind = "project_archived"
)

// AuditEvent is an append-only record of who did what.
type AuditEvent struct {
	ID         string    `json:"id"`
	Kind       AuditKind `json:"kind"`
	ActorID    int64     `json:"actor_id,omitempty"`
	SubjectID  int64     `json:"subject_id,omitempty"`
	ProjectID  int64     `json:"project_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
