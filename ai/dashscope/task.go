package dashscope

import "errors"

var (
	// ErrTaskFailed indicates the backend reported a terminal FAILED status.
	ErrTaskFailed = errors.New("image synthesis task failed")

	// ErrTaskTimedOut indicates the attempt budget ran out before the task
	// reached a terminal status.
	ErrTaskTimedOut = errors.New("image synthesis task timed out")
)

// TaskState tracks an asynchronous image synthesis task through its life.
// A submitted task moves to polling unconditionally; polling continues on
// non-terminal API statuses until the backend reports a terminal one or the
// attempt budget converts the task into a timeout.
type TaskState string

const (
	StateSubmitted TaskState = "SUBMITTED"
	StatePolling   TaskState = "POLLING"
	StateSucceeded TaskState = "SUCCEEDED"
	StateFailed    TaskState = "FAILED"
	StateTimedOut  TaskState = "TIMED_OUT"
)

// task_status values reported by the tasks endpoint.
const (
	taskStatusPending   = "PENDING"
	taskStatusRunning   = "RUNNING"
	taskStatusSucceeded = "SUCCEEDED"
	taskStatusFailed    = "FAILED"
)

// AsyncTask is one submitted image synthesis task.
type AsyncTask struct {
	// ID is the task identifier returned by the submission call.
	ID string

	// State is the polling lifecycle state, not the raw API status.
	State TaskState

	// Status is the last task_status reported by the backend.
	Status string
}

// newAsyncTask wraps a freshly submitted task identifier.
func newAsyncTask(id string) *AsyncTask {
	return &AsyncTask{ID: id, State: StateSubmitted}
}

// Advance applies one polled API status. Unknown statuses keep the task
// polling; only the backend's terminal statuses end it.
func (t *AsyncTask) Advance(status string) {
	t.Status = status
	switch status {
	case taskStatusSucceeded:
		t.State = StateSucceeded
	case taskStatusFailed:
		t.State = StateFailed
	default:
		t.State = StatePolling
	}
}

// Terminal reports whether polling should stop.
func (t *AsyncTask) Terminal() bool {
	switch t.State {
	case StateSucceeded, StateFailed, StateTimedOut:
		return true
	default:
		return false
	}
}
