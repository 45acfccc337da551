package llm

import "fmt"

// ErrorKind classifies LLM errors.
type ErrorKind int

const (
	ErrConfig      ErrorKind = iota // required config missing for the dialect
	ErrAdapter                      // request marshal failure in adapter
	ErrTransport                    // connection failure, DNS, timeout
	ErrAPI                          // non-2xx HTTP status
	ErrDecode                       // body does not match the dialect's envelope
	ErrUnsupported                  // provider must never reach live dispatch
	ErrProvider                     // Bedrock call failed
)

var errorKindNames = [...]string{
	ErrConfig:      "config",
	ErrAdapter:     "adapter",
	ErrTransport:   "transport",
	ErrAPI:         "api",
	ErrDecode:      "decode",
	ErrUnsupported: "unsupported",
	ErrProvider:    "provider",
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", k)
}

// Error is the library's error type.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Status   int    // HTTP status for ErrAPI
	Cause    error  // underlying error
	Raw      []byte // raw response body if available
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Kind == ErrAPI {
		msg = fmt.Sprintf("%s (status %d): %s", e.Message, e.Status, e.Raw)
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Provider != "" {
		return fmt.Sprintf("llm [%s] %s: %s", e.Kind, e.Provider, msg)
	}
	return fmt.Sprintf("llm [%s]: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
