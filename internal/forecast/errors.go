package forecast

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is matched by every *InsufficientDataError
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNoValidPredictions is returned when every requested strategy declined
	ErrNoValidPredictions = errors.New("no valid predictions")
	// ErrMalformedWindow is returned for windows with duplicate or out-of-order timestamps
	ErrMalformedWindow = errors.New("malformed window")
)

// InsufficientDataError reports a window shorter than the required minimum
type InsufficientDataError struct {
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d observations, got %d", e.Need, e.Have)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// UnknownModelError names a strategy or model type that is not recognised
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q", e.Model)
}

// StrategyDeclinedError is a strategy-local failure. It never fails a request;
// the orchestrator turns it into an invalid prediction.
type StrategyDeclinedError struct {
	Strategy string
	Reason   string
	Err      error
}

func (e *StrategyDeclinedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s declined: %s: %v", e.Strategy, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s declined: %s", e.Strategy, e.Reason)
}

func (e *StrategyDeclinedError) Unwrap() error { return e.Err }

// NumericInstabilityError reports an ill-conditioned fit
type NumericInstabilityError struct {
	Op     string
	Detail string
}

func (e *NumericInstabilityError) Error() string {
	return fmt.Sprintf("numeric instability in %s: %s", e.Op, e.Detail)
}

// ErrorKind classifies err for responses, logs and metrics
func ErrorKind(err error) string {
	var insufficient *InsufficientDataError
	var unknown *UnknownModelError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &insufficient), errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.As(err, &unknown):
		return "unknown_model"
	case errors.Is(err, ErrMalformedWindow):
		return "malformed_window"
	case errors.Is(err, ErrNoValidPredictions):
		return "no_valid_predictions"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
