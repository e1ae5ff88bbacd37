package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/domain"
)

// documentRecord is the SurrealDB row shape for document metadata.
type documentRecord struct {
	ID          *surrealmodels.RecordID `json:"id,omitempty"`
	OwnerID     string                  `json:"ownerId"`
	Filename    string                  `json:"filename"`
	MimeType    string                  `json:"mimeType"`
	SizeBytes   int64                   `json:"sizeBytes"`
	StoragePath string                  `json:"storagePath"`
	SharedWith  []string                `json:"sharedWith"`
	UploadedAt  string                  `json:"uploadedAt"`
}

func (r *documentRecord) toDocument() Document {
	uploadedAt, _ := time.Parse(time.RFC3339Nano, r.UploadedAt)
	id := ""
	if r.ID != nil {
		id = r.ID.String()
	}
	shared := r.SharedWith
	if shared == nil {
		shared = []string{}
	}
	return Document{
		ID:          id,
		OwnerID:     r.OwnerID,
		Filename:    r.Filename,
		MimeType:    r.MimeType,
		SizeBytes:   r.SizeBytes,
		StoragePath: r.StoragePath,
		SharedWith:  shared,
		UploadedAt:  uploadedAt,
	}
}

// SurrealMetadataStore is the durable MetadataStore backed by SurrealDB.
type SurrealMetadataStore struct {
	db *surrealdb.DB
}

var _ MetadataStore = (*SurrealMetadataStore)(nil)

// NewSurrealMetadataStore creates a new SurrealMetadataStore.
func NewSurrealMetadataStore(db *surrealdb.DB) *SurrealMetadataStore {
	return &SurrealMetadataStore{db: db}
}

// Create persists the metadata of a freshly stored blob.
func (s *SurrealMetadataStore) Create(ctx context.Context, doc *Document) (*Document, error) {
	query := `
		CREATE document CONTENT {
			ownerId: $ownerId,
			filename: $filename,
			mimeType: $mimeType,
			sizeBytes: $sizeBytes,
			storagePath: $storagePath,
			sharedWith: [],
			uploadedAt: $uploadedAt
		}
	`
	params := map[string]any{
		"ownerId":     doc.OwnerID,
		"filename":    doc.Filename,
		"mimeType":    doc.MimeType,
		"sizeBytes":   doc.SizeBytes,
		"storagePath": doc.StoragePath,
		"uploadedAt":  time.Now().UTC().Format(time.RFC3339Nano),
	}

	records, err := database.Query[documentRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create document metadata: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("document create returned no record")
	}

	out := records[0].toDocument()
	return &out, nil
}

// GetByID returns the document, or domain.ErrNotFound.
func (s *SurrealMetadataStore) GetByID(ctx context.Context, id string) (*Document, error) {
	record, err := database.QueryOne[documentRecord](ctx, s.db,
		"SELECT * FROM document WHERE id = <record> $id", map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	out := record.toDocument()
	return &out, nil
}

// ListAccessible returns own plus shared-with documents, newest first.
func (s *SurrealMetadataStore) ListAccessible(ctx context.Context, userID string) ([]Document, error) {
	query := `
		SELECT * FROM document
		WHERE ownerId = $userId OR $userId IN sharedWith
		ORDER BY uploadedAt DESC
	`
	records, err := database.Query[documentRecord](ctx, s.db, query, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	out := make([]Document, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDocument())
	}
	return out, nil
}

// Share adds userID to the document's shared set.
func (s *SurrealMetadataStore) Share(ctx context.Context, id, userID string) (*Document, error) {
	// array::union keeps the share idempotent.
	query := `
		UPDATE document SET sharedWith = array::union(sharedWith, [$userId])
		WHERE id = <record> $id
		RETURN AFTER
	`
	record, err := database.QueryOne[documentRecord](ctx, s.db, query,
		map[string]any{"id": id, "userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to share document: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	out := record.toDocument()
	return &out, nil
}

// Delete removes the metadata record.
func (s *SurrealMetadataStore) Delete(ctx context.Context, id string) error {
	if err := database.Execute(ctx, s.db,
		"DELETE document WHERE id = <record> $id", map[string]any{"id": id}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
