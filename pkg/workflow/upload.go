package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/LACSistemas/EscriturasNew/pkg/ports"
	"github.com/LACSistemas/EscriturasNew/pkg/sanitize"
)

// MergeFunc merges sanitized extraction fields into the session's entity
// model (a Party, a Spouse, or a Certificate).
type MergeFunc func(s *domain.Session, fields map[string]string) error

// MaxUploadSize bounds accepted documents (20 MiB, matching the gateway).
const MaxUploadSize = 20 << 20

// FileUpload is the only handler kind with a suspending external call: on
// accept it sends the file through the Gateway, sanitizes the result, and
// merges the normalized fields into the target entity.
type FileUpload struct {
	Text        string
	Description string

	// Hint selects the extraction template; it may depend on answers given
	// earlier (e.g. which identity document kind the party chose).
	Hint func(s *domain.Session) ports.ExtractionHint

	// Merge applies the sanitized fields to the session.
	Merge MergeFunc

	Gateway *Gateway
}

// Prompt implements Handler.
func (u *FileUpload) Prompt(_ *domain.Session) Prompt {
	return Prompt{Question: u.Text, RequiresFile: true, FileDescription: u.Description}
}

// OptionSet implements Handler.
func (u *FileUpload) OptionSet() []string { return nil }

// Validate implements Handler.
func (u *FileUpload) Validate(resp Response) error {
	if len(resp.FileData) == 0 {
		return errors.New("a file is required")
	}
	if len(resp.FileData) > MaxUploadSize {
		return fmt.Errorf("file exceeds the %d byte limit", MaxUploadSize)
	}
	if resp.Filename == "" {
		return errors.New("a filename is required")
	}
	return nil
}

// ExtractFields runs the gateway call with retries and sanitizes the result.
// It takes the hint instead of the session so the engine can release the
// session lock while the call is in flight. Returns the attempt count for
// error reporting and metrics.
func (u *FileUpload) ExtractFields(ctx context.Context, resp Response, hint ports.ExtractionHint) (map[string]string, int, error) {
	fields, attempts, err := u.Gateway.Extract(ctx, resp.FileData, resp.Filename, hint)
	if err != nil {
		return nil, attempts, err
	}
	return sanitize.Fields(fields), attempts, nil
}

// MergeFields applies previously extracted fields to the session.
func (u *FileUpload) MergeFields(s *domain.Session, fields map[string]string) error {
	return u.Merge(s, fields)
}

// Accept implements Handler: extract, sanitize, merge. The engine prefers
// the split ExtractFields/MergeFields path so extraction happens outside the
// session lock; Accept remains for synchronous embedding.
func (u *FileUpload) Accept(ctx context.Context, s *domain.Session, resp Response) error {
	fields, attempts, err := u.ExtractFields(ctx, resp, u.Hint(s))
	if err != nil {
		return &domain.ExtractionError{Step: s.CurrentStep, Attempts: attempts, Err: err}
	}
	return u.Merge(s, fields)
}
