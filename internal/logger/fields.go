package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldBriefID is the research brief job ID
	FieldBriefID = "brief_id"

	// FieldURL is the source URL being fetched or extracted
	FieldURL = "url"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields, used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
