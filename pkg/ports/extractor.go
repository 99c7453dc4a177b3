package ports

import "context"

// ExtractionHint tells the gateway what kind of document was uploaded so it
// can pick the right extraction template. Values are the DocumentKind and
// CertificateType literals of the domain package.
type ExtractionHint string

// Extractor is the Extraction Gateway contract: raw document bytes in,
// structured fields out. Implementations must NOT retry internally; the
// file-upload handler owns the retry policy so it stays configurable per
// deployment.
type Extractor interface {
	Extract(ctx context.Context, raw []byte, filename string, hint ExtractionHint) (map[string]string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, raw []byte, filename string, hint ExtractionHint) (map[string]string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, raw []byte, filename string, hint ExtractionHint) (map[string]string, error) {
	return f(ctx, raw, filename, hint)
}
