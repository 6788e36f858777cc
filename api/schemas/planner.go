package schemas

// PlanRequest is the wire payload sent to the planner oracle on every planning
// round. Element descriptors are serialized as-is; live page refs never appear
// here (they are stripped at the extractor boundary, not here).
type PlanRequest struct {
	Command   string              `json:"command"`
	StepsDone []ExecutionStep     `json:"stepsDone"`
	Elements  []ElementDescriptor `json:"elements"`
}

// PlanResult is the canonical, already-normalized outcome of one planner
// call. Whatever shape the oracle used (single action object, action array,
// type-at-top-level), the planner client reduces it to this form once; no
// other component branches on payload shape.
type PlanResult struct {
	Actions []ActionDescriptor
	// Done is set when the oracle declares the task complete, returns an
	// explicitly empty action list, or uses a no-action sentinel.
	Done bool
	// Context carries free-form key/value updates from the oracle, retained
	// in the conversation buffer for subsequent rounds.
	Context map[string]string
	// Malformed marks a soft failure: the reply could not be parsed (or the
	// call timed out) and Actions is empty. The orchestrator counts these
	// against the task failure budget.
	Malformed bool
	// Err carries the underlying parse/transport problem for logging. It is
	// advisory; Malformed is the signal the loop acts on.
	Err error
}
