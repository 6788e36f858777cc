package schemas

// ErrorCode is a string type used for structured error reporting across the
// execution loop. Using a custom type ensures only predefined constants can
// be used where an ErrorCode is expected.
type ErrorCode string

const (
	// -- Locator/Execution errors (recoverable, trigger replanning) --
	ErrCodeElementNotFound   ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeStaleReference    ErrorCode = "STALE_REFERENCE"
	ErrCodeActionUnsupported ErrorCode = "ACTION_UNSUPPORTED"
	ErrCodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"
	ErrCodeExecutionFailure  ErrorCode = "EXECUTION_FAILURE"

	// -- Oracle errors (soft failures, treated as zero actions returned) --
	ErrCodeOracleMalformed ErrorCode = "ORACLE_MALFORMED_REPLY"
	ErrCodeOracleTimeout   ErrorCode = "ORACLE_TIMEOUT"

	// -- Budget escalation --
	ErrCodeRetryBudgetExceeded ErrorCode = "RETRY_BUDGET_EXCEEDED"
	ErrCodeTaskFailureBudget   ErrorCode = "TASK_FAILURE_BUDGET_EXCEEDED"
)
