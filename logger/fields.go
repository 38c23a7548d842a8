package logger

import "time"

// Field keys shared by all components.
const (
	FieldComponent = "component"
	FieldSessionID = "session_id"
	FieldEndpoint  = "endpoint"
	FieldState     = "state"
	FieldEventType = "event_type"
	FieldEventID   = "event_id"
	FieldProductID = "product_id"
	FieldAttempt   = "attempt"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldRequestID = "request_id"
)

// Fields pairs up alternating keys and values. Pairs whose key is not a
// string, and a trailing key without a value, are dropped.
//
//	log.Info("applied", logger.Fields(logger.FieldProductID, id, "available", n))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// DurationFields records how long op took, in milliseconds.
func DurationFields(op string, d time.Duration) map[string]any {
	return map[string]any{FieldOperation: op, FieldDuration: d.Milliseconds()}
}

// MergeWithError sets the error field on fields, allocating when nil.
func MergeWithError(fields map[string]any, err error) map[string]any {
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields[FieldError] = err.Error()
	return fields
}
