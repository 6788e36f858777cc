package schemas

import "time"

// StepStatus is the terminal status of one attempted action.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

// ExecutionStep records one attempted action and its outcome. Task history is
// append-only; it is the only state fed back into planning as "steps done".
type ExecutionStep struct {
	Action    ActionDescriptor `json:"action"`
	Status    StepStatus       `json:"status"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// TaskStatus is the orchestrator's state-machine state for one task.
type TaskStatus string

const (
	TaskPlanning  TaskStatus = "PLANNING"
	TaskExecuting TaskStatus = "EXECUTING"
	TaskDone      TaskStatus = "DONE"
	TaskAborted   TaskStatus = "ABORTED"
)

// Terminal reports whether the status is a terminal state.
func (s TaskStatus) Terminal() bool { return s == TaskDone || s == TaskAborted }

// TaskResult is the only object that escapes the execution loop. It carries
// the full step history and the overall verdict; an aborted task always has
// Success == false.
type TaskResult struct {
	TaskID     string          `json:"taskId"`
	Command    string          `json:"command"`
	Success    bool            `json:"success"`
	FinalState TaskStatus      `json:"finalState"`
	Steps      []ExecutionStep `json:"steps"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}
