package model

import "time"

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	// TaskStatusOpen indicates the task has not been completed yet.
	TaskStatusOpen TaskStatus = "open"
	// TaskStatusDone indicates the task has been completed.
	TaskStatusDone TaskStatus = "done"
)

// IsValidTaskStatus reports whether s is a known task status.
func IsValidTaskStatus(s string) bool {
	switch TaskStatus(s) {
	case TaskStatusOpen, TaskStatusDone:
		return true
	}
	return false
}

// Task represents a single actionable item in the workspace.
// Due dates are stored as plain calendar strings (YYYY-MM-DD and HH:MM) rather
// than timestamps: a task due "2026-03-01" is due on that date in whatever
// timezone the user opens the workspace in.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Status      TaskStatus `json:"status"`
	DueDate     string     `json:"dueDate,omitempty"`
	DueTime     string     `json:"dueTime,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewTask creates a new open Task with a generated ID and creation timestamps.
// title: The task title.
// Returns: A pointer to the new Task instance.
func NewTask(title string) *Task {
	now := time.Now()
	return &Task{
		ID:        NewID(),
		Title:     title,
		Status:    TaskStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkAsCompleted transitions the task to done and stamps the completion time.
// Completing an already-done task refreshes UpdatedAt but keeps the original
// CompletedAt, so the first completion time is preserved.
func (t *Task) MarkAsCompleted() {
	now := time.Now()
	t.UpdatedAt = now
	if t.Status == TaskStatusDone {
		return
	}
	t.Status = TaskStatusDone
	t.CompletedAt = &now
}

// Reopen transitions a done task back to open and clears the completion time.
func (t *Task) Reopen() {
	t.Status = TaskStatusOpen
	t.CompletedAt = nil
	t.UpdatedAt = time.Now()
}

// Touch refreshes the task's UpdatedAt timestamp.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now()
}
