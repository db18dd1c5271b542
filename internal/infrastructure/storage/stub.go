package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	vehicleregapp "github.com/roads-authority/backend/internal/application/vehiclereg"
)

// StubDocumentStorage is an in-memory DocumentStorage for development and
// tests. Documents live in a map keyed by their generated URL.
type StubDocumentStorage struct {
	// BaseURL is the base URL for generated document URLs.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string

	mu   sync.Mutex
	docs map[string][]byte
}

// NewStubDocumentStorage creates a new StubDocumentStorage
func NewStubDocumentStorage() *StubDocumentStorage {
	return &StubDocumentStorage{
		BaseURL: "https://storage.example.com",
		docs:    make(map[string][]byte),
	}
}

// Ensure StubDocumentStorage implements DocumentStorage
var _ vehicleregapp.DocumentStorage = (*StubDocumentStorage)(nil)

// Store reads the document into memory and returns its URL
func (s *StubDocumentStorage) Store(ctx context.Context, doc *vehicleregapp.DocumentUpload) (string, error) {
	if doc == nil || doc.Content == nil {
		return "", errors.New("document content is required")
	}

	data, err := io.ReadAll(doc.Content)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(doc.Filename))
	url := s.BaseURL + "/" + uuid.New().String() + ext

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[url] = data

	return url, nil
}

// Delete removes a stored document by its URL
func (s *StubDocumentStorage) Delete(ctx context.Context, documentURL string) error {
	if documentURL == "" {
		return errors.New("document URL is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, documentURL)

	return nil
}

// Get returns the stored bytes for a document URL, for test assertions
func (s *StubDocumentStorage) Get(documentURL string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[documentURL]
	return data, ok
}

// Len returns the number of stored documents
func (s *StubDocumentStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
