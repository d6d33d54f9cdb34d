package schema

import "fmt"

// Reasons reported by ValidationError.
const (
	ReasonRequired       = "answer required"
	ReasonUnknownOption  = "unknown option"
	ReasonKindMismatch   = "answer kind mismatch"
	ReasonDuplicateValue = "duplicate option"
)

// ValidationError represents a single answer validation failure.
type ValidationError struct {
	QuestionID string // Question the failure belongs to
	Reason     string // Human-readable reason for failure
	Value      any    // The offending value, if any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s for question %s", e.Reason, e.QuestionID)
	}
	return fmt.Sprintf("%s for question %s (got %v)", e.Reason, e.QuestionID, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Messages flattens the aggregated errors into strings.
func (e *AggregateError) Messages() []string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
