package domain

import "time"

// Project is a unit of work users are assigned to.
type Project struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// Archived reports whether the project no longer accepts assignments.
func (p *Project) Archived() bool {
	return p.ArchivedAt != nil
}
