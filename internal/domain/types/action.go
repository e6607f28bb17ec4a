package types

// Log action names used with logger wrapper's WithAction.
const (
	ActionSessionRestored = "session_restored"
	ActionSessionCleared  = "session_cleared"

	ActionPollTick          = "poll_tick"
	ActionPollBackoff       = "poll_backoff"
	ActionStaleRideDropped  = "stale_ride_response_dropped"
	ActionWSConnected       = "ws_connected"
	ActionWSDisconnected    = "ws_disconnected"
	ActionExternalAPIFailed = "external_api_failed"
)
