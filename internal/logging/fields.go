package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType tags log records with a machine-readable event category.
	FieldEventType = "event_type"
	// FieldErrorHint suggests an operator action for warning and error records.
	FieldErrorHint = "error_hint"
	// FieldOperationID is the standardized key for move-operation identifiers.
	FieldOperationID = "operation_id"
	// FieldWatchID is the standardized key for watched-folder identifiers.
	FieldWatchID = "watch_id"
	// FieldSourcePath is the standardized key for the file a record concerns.
	FieldSourcePath = "source_path"
)
