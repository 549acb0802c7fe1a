package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "runner_merged").
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take after a warning.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunnerID identifies a runner record.
	FieldRunnerID = "runner_id"
	// FieldClubID identifies a club record.
	FieldClubID = "club_id"
	// FieldBatchID identifies a single import batch.
	FieldBatchID = "batch_id"
	// FieldThreshold records the similarity threshold of a scan.
	FieldThreshold = "threshold"
)
