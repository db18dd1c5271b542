package vehiclereg

import (
	"context"
	"io"
	"strings"
)

// DocumentUpload is the certified ID document attached to a submission
type DocumentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// IsAccepted reports whether the upload is a PDF or an image. Nothing else
// is stored.
func (d *DocumentUpload) IsAccepted() bool {
	return d.ContentType == "application/pdf" || strings.HasPrefix(d.ContentType, "image/")
}

// DocumentStorage stores application documents and hands back the key under
// which they can later be retrieved
type DocumentStorage interface {
	// Store uploads a document and returns its storage URL
	Store(ctx context.Context, doc *DocumentUpload) (string, error)

	// Delete removes a stored document; best effort on rollback paths
	Delete(ctx context.Context, url string) error
}
