package model

// TaskStatus represents the lifecycle state of a download task
type TaskStatus string

const (
	// TaskStatusCreated means the task is queued and waiting for a download slot
	TaskStatusCreated TaskStatus = "Created"

	// TaskStatusStarted means the task holds a slot and is fetching or tagging
	TaskStatusStarted TaskStatus = "Started"

	// TaskStatusCompleted means the file was downloaded successfully
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusFailed means the download failed with an error
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCanceled means the task was canceled by the user
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the task is currently doing fetch work
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusStarted
}

// IsFinished returns true if the task reached a terminal state (completed, failed or canceled)
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusFailed || ts == TaskStatusCanceled
}
