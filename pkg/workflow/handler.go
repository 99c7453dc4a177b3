package workflow

import (
	"context"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
)

// Response is one user submission against the current step: either an answer
// string or an uploaded file.
type Response struct {
	Answer   string
	FileData []byte
	Filename string
}

// Prompt is the rendering payload for one step, consumed by whatever surface
// hosts the interview.
type Prompt struct {
	Step            string   `json:"step"`
	Question        string   `json:"question"`
	Options         []string `json:"options,omitempty"`
	FreeText        bool     `json:"free_text,omitempty"`
	Placeholder     string   `json:"placeholder,omitempty"`
	RequiresFile    bool     `json:"requires_file,omitempty"`
	FileDescription string   `json:"file_description,omitempty"`
}

// Handler is the shared contract of the four step kinds.
//
// Validate inspects the response shape without touching the session; the
// engine wraps its error into a domain.ValidationError for the current step.
// Accept applies the response to the session. Only FileUpload suspends on an
// external call inside Accept.
type Handler interface {
	// Prompt renders the step for the given session.
	Prompt(s *domain.Session) Prompt

	// OptionSet returns the closed option vocabulary of the step, or nil for
	// free-text and file steps. Build-time exhaustiveness checks compare this
	// set against the step's outgoing transition conditions.
	OptionSet() []string

	// Validate checks the response shape. Returns a reason string error.
	Validate(resp Response) error

	// Accept applies the response to the session.
	Accept(ctx context.Context, s *domain.Session, resp Response) error
}

// ApplyFunc is an optional side effect bound to a question step, invoked
// with the validated answer after it has been saved.
type ApplyFunc func(s *domain.Session, answer string) error
