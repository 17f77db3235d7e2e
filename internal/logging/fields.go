package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldOperationID is the key for tracked docker operation identifiers (e.g. build:app).
	FieldOperationID = "operation_id"
	// FieldRunID is the key for the uuid of a single attempt.
	FieldRunID = "run_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldProgressStage is the key for the current progress phase.
	FieldProgressStage = "progress_stage"
	// FieldProgressPercent is the key for completion percentage.
	FieldProgressPercent = "progress_percent"
	// FieldProgressMessage is the key for a free-form progress description.
	FieldProgressMessage = "progress_message"
)
