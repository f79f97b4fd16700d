package domain

import "time"

// Project roles.
const (
	ProjectRoleManager   = "manager"
	ProjectRoleDeveloper = "developer"
)

// AssignmentStatus is the lifecycle state of an assignment row.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "active"
	AssignmentInactive AssignmentStatus = "inactive"
)

// ValidProjectRole reports whether role can be held on a project.
func ValidProjectRole(role string) bool {
	return role == ProjectRoleManager || role == ProjectRoleDeveloper
}

// Assignment links a user to a project with a role. Rows are never deleted:
// removal flips Status to inactive and sets EndDate so history is kept.
type Assignment struct {
	ID               string           `json:"id"`
	UserID           int64            `json:"user_id"`
	ProjectID        int64            `json:"project_id"`
	RoleInProject    string           `json:"role_in_project"`
	AssignedByUserID int64            `json:"assigned_by_user_id"`
	Status           AssignmentStatus `json:"status"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          *time.Time       `json:"end_date,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Active reports whether the assignment is currently in effect.
func (a *Assignment) Active() bool {
	return a.Status == AssignmentActive
}

// AssignmentStats summarises the active assignments of a project.
type AssignmentStats struct {
	Total         int        `json:"total_assignments"`
	Managers      int        `json:"managers_count"`
	Developers    int        `json:"developers_count"`
	FirstAssigned *time.Time `json:"first_assignment,omitempty"`
	LastAssigned  *time.Time `json:"last_assignment,omitempty"`
}

// Day truncates t to midnight UTC. Assignment dates carry no time of day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
