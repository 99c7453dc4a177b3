package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
)

// Question is a step with a fixed closed option set. The response must equal
// one of the options, value for value.
type Question struct {
	Text    string
	Options []string

	// SaveTo is the Answers key the response is stored under; empty means
	// the answer is routing-only.
	SaveTo string

	// Apply runs after the answer is saved, for entity side effects
	// (appending a party, recording a waived certificate, ...).
	Apply ApplyFunc
}

// Prompt implements Handler.
func (q *Question) Prompt(_ *domain.Session) Prompt {
	return Prompt{Question: q.Text, Options: q.Options}
}

// OptionSet implements Handler.
func (q *Question) OptionSet() []string { return q.Options }

// Validate implements Handler.
func (q *Question) Validate(resp Response) error {
	return validateOption(resp.Answer, q.Options)
}

// Accept implements Handler.
func (q *Question) Accept(_ context.Context, s *domain.Session, resp Response) error {
	saveAnswer(s, q.SaveTo, resp.Answer)
	if q.Apply != nil {
		return q.Apply(s, resp.Answer)
	}
	return nil
}

// DynamicQuestion is a Question whose prompt text is computed from session
// state (e.g. "Kind of buyer #2:"). The option set stays fixed and closed so
// it can be checked against outgoing conditions at build time.
type DynamicQuestion struct {
	TextFunc func(s *domain.Session) string
	Options  []string
	SaveTo   string
	Apply    ApplyFunc
}

// Prompt implements Handler.
func (q *DynamicQuestion) Prompt(s *domain.Session) Prompt {
	return Prompt{Question: q.TextFunc(s), Options: q.Options}
}

// OptionSet implements Handler.
func (q *DynamicQuestion) OptionSet() []string { return q.Options }

// Validate implements Handler.
func (q *DynamicQuestion) Validate(resp Response) error {
	return validateOption(resp.Answer, q.Options)
}

// Accept implements Handler.
func (q *DynamicQuestion) Accept(_ context.Context, s *domain.Session, resp Response) error {
	saveAnswer(s, q.SaveTo, resp.Answer)
	if q.Apply != nil {
		return q.Apply(s, resp.Answer)
	}
	return nil
}

func validateOption(answer string, options []string) error {
	if len(options) == 0 {
		return errors.New("step accepts no response")
	}
	for _, opt := range options {
		if answer == opt {
			return nil
		}
	}
	return fmt.Errorf("answer must be one of: %s", strings.Join(options, ", "))
}

func saveAnswer(s *domain.Session, key, answer string) {
	if key == "" {
		return
	}
	if s.Answers == nil {
		s.Answers = make(map[string]string)
	}
	s.Answers[key] = answer
}
