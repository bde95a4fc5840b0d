package domain

import "time"

// WorkItem is the snapshot of a tracked task as it looked when the event
// fired. The dispatcher never reads the task store itself; the event source
// hands it a complete snapshot.
type WorkItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ProjectID   string     `json:"project_id"`
	ProjectName string     `json:"project_name,omitempty"`
	StatusLabel string     `json:"status_label,omitempty"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Actor is whoever performed the action that produced the event.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
