package documents

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/venturelink/venturelink/internal/domain"
)

// MemoryMetadataStore is the in-memory MetadataStore used when no database
// is configured, and by tests.
type MemoryMetadataStore struct {
	mu   sync.RWMutex
	byID map[string]*Document
}

var _ MetadataStore = (*MemoryMetadataStore)(nil)

// NewMemoryMetadataStore creates an empty MemoryMetadataStore.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{byID: make(map[string]*Document)}
}

// Create persists the metadata of a freshly stored blob.
func (s *MemoryMetadataStore) Create(ctx context.Context, doc *Document) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	stored.ID = "document:" + uuid.NewString()
	stored.UploadedAt = time.Now().UTC()
	if stored.SharedWith == nil {
		stored.SharedWith = []string{}
	}
	s.byID[stored.ID] = &stored

	out := copyDocument(&stored)
	return &out, nil
}

// GetByID returns the document, or domain.ErrNotFound.
func (s *MemoryMetadataStore) GetByID(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyDocument(doc)
	return &out, nil
}

// ListAccessible returns own plus shared-with documents, newest first.
func (s *MemoryMetadataStore) ListAccessible(ctx context.Context, userID string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0)
	for _, doc := range s.byID {
		if doc.CanRead(userID) {
			out = append(out, copyDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

// Share adds userID to the document's shared set.
func (s *MemoryMetadataStore) Share(ctx context.Context, id, userID string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	shared := false
	for _, existing := range doc.SharedWith {
		if existing == userID {
			shared = true
			break
		}
	}
	if !shared {
		doc.SharedWith = append(doc.SharedWith, userID)
	}
	out := copyDocument(doc)
	return &out, nil
}

// Delete removes the metadata record.
func (s *MemoryMetadataStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func copyDocument(doc *Document) Document {
	out := *doc
	out.SharedWith = append([]string(nil), doc.SharedWith...)
	return out
}
