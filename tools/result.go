package tools

import "errors"

const (
	FallbackText = "Unable to fetch context from Valyu 🫠 Skill issue."
	ErrorPrefix  = "Error executing " + ToolName + ": "
)

// ErrNoResponse marks a call that produced no usable response from the API.
var ErrNoResponse = errors.New("no response from valyu")

// Result is the outcome of one tool invocation before it is turned into the
// text handed back to the host.
type Result struct {
	Text string
	Err  error
}

// Resolve collapses r into the string returned to the host. Failures never
// escape as errors.
func (r Result) Resolve() string {
	switch {
	case r.Err == nil:
		return r.Text
	case errors.Is(r.Err, ErrNoResponse):
		return FallbackText
	default:
		return ErrorPrefix + r.Err.Error()
	}
}
