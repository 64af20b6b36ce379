package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID   = "user_id"
	FieldClientID = "client_id"

	// Coordination
	FieldSessionID  = "session_id"
	FieldGroupID    = "group_id"
	FieldEvent      = "event"
	FieldTrackID    = "track_id"
	FieldProducerID = "producer_id"

	// Service
	FieldService = "service"
)
