package task

import "time"

// Assignee is the resolved user a task is assigned to.
type Assignee struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// View is a task with its assignee resolved to a full user. This is the
// shape served over REST and pushed over the fanout channel; AssignedTo
// is nil when the task is unassigned or the referenced user no longer
// exists.
type View struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssignedTo  *Assignee `json:"assignedTo"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
