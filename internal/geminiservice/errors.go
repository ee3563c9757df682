package geminiservice

import (
	"errors"
	"fmt"
)

var (
	// ErrResponseFormat means the model answered with nothing, with text that is
	// not JSON, or with JSON that does not satisfy the requested schema.
	ErrResponseFormat = errors.New("model response is not valid structured data")

	ErrUnsupportedLanguage = errors.New("unsupported language code")
	ErrInvalidInput        = errors.New("invalid input")

	ErrSessionNotStarted = errors.New("chat session has not been started")
	ErrSessionBusy       = errors.New("a message is already being processed for this session")
	ErrEmptyMessage      = errors.New("message must not be empty")
)

// ErrorKind groups gateway failures by the operation family that produced them.
type ErrorKind string

const (
	KindLookup      ErrorKind = "lookup"
	KindAnalysis    ErrorKind = "analysis"
	KindTranslation ErrorKind = "translation"
)

// User-facing wording per operation.
const (
	msgLookupFailed       = "Failed to fetch information for the specified medicine."
	msgPrescriptionFailed = "Failed to analyze prescription. The image may be unclear or the format is not supported."
	msgSymptomsFailed     = "Failed to analyze symptoms."
	msgTranslationFailed  = "Failed to translate content. Please try again."
)

// OperationError is returned by every gateway operation. Message is safe to show
// to the user; Err keeps the underlying cause for logs.
type OperationError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func lookupError(err error) error {
	return &OperationError{Kind: KindLookup, Op: "LookupMedicine", Message: msgLookupFailed, Err: err}
}

func analysisError(op, message string, err error) error {
	return &OperationError{Kind: KindAnalysis, Op: op, Message: message, Err: err}
}

func translationError(err error) error {
	return &OperationError{Kind: KindTranslation, Op: "Translate", Message: msgTranslationFailed, Err: err}
}

// UserMessage extracts the user-facing text from a gateway error, falling back
// to a generic sentence for anything else.
func UserMessage(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	return "An unknown error occurred."
}
