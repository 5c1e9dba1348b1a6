package model

import "time"

// Attachment mirrors the host content item this subsystem annotates. The
// store owning it is an external collaborator; this struct only carries what
// processing needs plus the persisted AI audit fields.
type Attachment struct {
	ID       int64
	FilePath string
	MimeType string

	Title       string
	Description string
	Caption     string
	AltText     string
	Tags        []string

	AIProcessed   bool
	AIProvider    string
	AIProcessedAt *time.Time
	AIConfidence  *float64
	AIRawResponse string
}

// supportedMimeTypes is the processing allow-list.
var supportedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// IsSupported reports whether the attachment's mime type can be analyzed.
func (a *Attachment) IsSupported() bool {
	_, ok := supportedMimeTypes[a.MimeType]
	return ok
}
