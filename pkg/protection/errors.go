package protection

import "net/http"

// Kind classifies why a submission was rejected.
type Kind string

const (
	KindBotDetected       Kind = "bot_detected"
	KindRateLimitExceeded Kind = "rate_limit_exceeded"
	KindInvalidCaptcha    Kind = "invalid_captcha"
	KindContentRejected   Kind = "content_rejected"
)

// ValidationError is the terminal outcome of a rejected submission. The
// Message is what the caller may surface to the client; it is intentionally
// generic for every kind except rate limiting, so a probing client cannot
// learn which check tripped.
type ValidationError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func errBotDetected() *ValidationError {
	return &ValidationError{
		Kind:       KindBotDetected,
		StatusCode: http.StatusBadRequest,
		Message:    "validation failed",
	}
}

func errRateLimitExceeded() *ValidationError {
	return &ValidationError{
		Kind:       KindRateLimitExceeded,
		StatusCode: http.StatusTooManyRequests,
		Message:    "too many contact form submissions",
	}
}

func errInvalidCaptcha(err error) *ValidationError {
	return &ValidationError{
		Kind:       KindInvalidCaptcha,
		StatusCode: http.StatusBadRequest,
		Message:    "invalid captcha",
		Err:        err,
	}
}

func errContentRejected() *ValidationError {
	return &ValidationError{
		Kind:       KindContentRejected,
		StatusCode: http.StatusBadRequest,
		Message:    "validation failed",
	}
}
