package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
)

// TextInput is a free-text step passed through a caller-supplied validator.
type TextInput struct {
	Text        string
	Placeholder string

	// Validator rejects malformed input. Nil means any non-empty text.
	Validator func(text string) error

	// SaveTo is the Answers key the trimmed text is stored under.
	SaveTo string

	// Apply runs after the text is saved, e.g. to store a normalized form.
	Apply ApplyFunc
}

// Prompt implements Handler.
func (t *TextInput) Prompt(_ *domain.Session) Prompt {
	return Prompt{Question: t.Text, FreeText: true, Placeholder: t.Placeholder}
}

// OptionSet implements Handler.
func (t *TextInput) OptionSet() []string { return nil }

// Validate implements Handler.
func (t *TextInput) Validate(resp Response) error {
	text := strings.TrimSpace(resp.Answer)
	if text == "" {
		return errors.New("text input is required")
	}
	if t.Validator != nil {
		return t.Validator(text)
	}
	return nil
}

// Accept implements Handler.
func (t *TextInput) Accept(_ context.Context, s *domain.Session, resp Response) error {
	text := strings.TrimSpace(resp.Answer)
	saveAnswer(s, t.SaveTo, text)
	if t.Apply != nil {
		return t.Apply(s, text)
	}
	return nil
}
