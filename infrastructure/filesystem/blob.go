package filesystem

import "context"

// BlobStore stores photo evidence and returns a public URL. Upload failures
// never block the primary scan write; the processor records an error marker
// instead.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, contentType, fileName string) (string, error)
}
