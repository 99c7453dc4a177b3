package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ValidationError reports a response that does not satisfy the current
// step's accepted shape. The session is untouched; the caller resubmits.
type ValidationError struct {
	Step   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %q: invalid response: %s", e.Step, e.Reason)
}

// TransitionError reports a response that passed validation but matched no
// outgoing condition. Unreachable if the build-time exhaustiveness check
// holds, but surfaced distinctly rather than leaving the session stuck.
type TransitionError struct {
	Step     string
	Response string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("step %q: response %q matched no transition", e.Step, e.Response)
}

// ExtractionError reports that the Extraction Gateway failed after the retry
// budget was exhausted. Session state is unchanged; the same upload step can
// be resubmitted.
type ExtractionError struct {
	Step     string
	Attempts int
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("step %q: extraction failed after %d attempts: %v", e.Step, e.Attempts, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StaleRequestError reports a resubmission carrying a sequence number the
// session has already advanced past. Rejected without mutation.
type StaleRequestError struct {
	Got  uint64
	Want uint64
}

func (e *StaleRequestError) Error() string {
	return fmt.Sprintf("stale request: got sequence %d, session is at %d", e.Got, e.Want)
}

// ConfigurationError aggregates every inconsistency found while building a
// workflow definition. Fatal: raised before any session can be processed.
type ConfigurationError struct {
	Issues []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Issues) == 1 {
		return "workflow configuration: " + e.Issues[0]
	}
	return fmt.Sprintf("workflow configuration: %d issues:\n  - %s",
		len(e.Issues), strings.Join(e.Issues, "\n  - "))
}
