package models

// Intent is the coarse classification of a user request: whether it needs
// no tool work at all, a concrete value from the user first, or a plan of
// tool invocations.
type Intent string

const (
	IntentNoAction           Intent = "NO_ACTION"
	IntentNeedsClarification Intent = "NEEDS_CLARIFICATION"
	IntentNeedsTool          Intent = "NEEDS_TOOL"
)

// Classification is the verdict on one tool invocation outcome. Everything
// the executor does with a raw result flows from this five-way split.
type Classification string

const (
	// ClassSuccess: a non-empty, non-error-bearing result.
	ClassSuccess Classification = "SUCCESS"
	// ClassParameterError: failure attributable to an argument value;
	// correctable by re-deriving parameters from context.
	ClassParameterError Classification = "PARAMETER_ERROR"
	// ClassTransientError: retryable failure unrelated to parameters
	// (timeout, connection loss, 5xx).
	ClassTransientError Classification = "TRANSIENT_ERROR"
	// ClassAmbiguous: the invocation cannot proceed without a concrete
	// value from the user.
	ClassAmbiguous Classification = "AMBIGUOUS"
	// ClassFatal: no automatic remediation applies.
	ClassFatal Classification = "FATAL"
)
