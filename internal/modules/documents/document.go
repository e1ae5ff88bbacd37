package documents

import (
	"context"
	"time"
)

// Document is the metadata of one uploaded blob. The bytes live in the
// blob store under StoragePath; StoragePath itself is never exposed over
// the API.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"sizeBytes"`
	StoragePath string    `json:"-"`
	SharedWith  []string  `json:"sharedWith"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// CanRead reports whether userID may download the document.
func (d *Document) CanRead(userID string) bool {
	if d.OwnerID == userID {
		return true
	}
	for _, id := range d.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// MetadataStore is the document metadata persistence contract.
type MetadataStore interface {
	// Create persists the metadata of a freshly stored blob.
	Create(ctx context.Context, doc *Document) (*Document, error)
	// GetByID returns the document, or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*Document, error)
	// ListAccessible returns the user's own documents plus the ones
	// shared with them, newest first.
	ListAccessible(ctx context.Context, userID string) ([]Document, error)
	// Share adds userID to the document's shared set. Sharing twice is
	// a no-op.
	Share(ctx context.Context, id, userID string) (*Document, error)
	// Delete removes the metadata record.
	Delete(ctx context.Context, id string) error
}
