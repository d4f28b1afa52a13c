package engine

// Status is the closed-set error-kind taxonomy every fallible operation
// returns alongside its Go error (spec §7). "Tagged results over
// exceptions": no out-of-band control flow crosses the API boundary.
type Status string

const (
	StatusOK                Status = "OK"
	StatusSessionNotFound    Status = "SESSION_NOT_FOUND"
	StatusInvalidParams      Status = "INVALID_PARAMS"
	StatusProcessingError    Status = "PROCESSING_ERROR"
	StatusInsufficientData   Status = "INSUFFICIENT_DATA"
	StatusInitFailed         Status = "INIT_FAILED"
	StatusAlreadyFinalized   Status = "ALREADY_FINALIZED"
)

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
