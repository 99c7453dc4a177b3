package extraction

import (
	"context"

	"github.com/LACSistemas/EscriturasNew/pkg/ports"
)

// Static always returns the same field map. Useful for local development
// when no gateway is running.
type Static struct {
	Fields map[string]string
}

var _ ports.Extractor = (*Static)(nil)

// Extract returns a copy of the configured fields.
func (s *Static) Extract(ctx context.Context, raw []byte, filename string, hint ports.ExtractionHint) (map[string]string, error) {
	out := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		out[k] = v
	}
	return out, nil
}
