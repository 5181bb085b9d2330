package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/littleleg198602/MELODY4U/internal/storage"
)

// object stores the bytes and metadata of one uploaded object.
type object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Storage implements storage.Storage using an in-memory map. Presigned URLs
// are fake but unique per issuance, which is enough for tests and local
// development without an object store.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]*object
	baseURL string
	signSeq int
}

// New creates a new in-memory storage instance.
func New(baseURL string) *Storage {
	return &Storage{
		objects: make(map[string]*object),
		baseURL: baseURL,
	}
}

// Upload stores the object bytes in memory.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[input.Key] = &object{
		Key:         input.Key,
		ContentType: input.ContentType,
		Data:        data,
	}

	return &storage.UploadResult{
		Key: input.Key,
		URL: s.PublicURL(input.Key),
	}, nil
}

// PresignGet returns a unique expiring-style URL for the key. The key does
// not have to exist, matching real presigning semantics.
func (s *Storage) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signSeq++
	return fmt.Sprintf("%s/%s?signature=%d&expires=%d", s.baseURL, key, s.signSeq, int(ttl.Seconds())), nil
}

// PublicURL returns the stable URL for the given key.
func (s *Storage) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// Delete removes the object from memory.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; !exists {
		return fmt.Errorf("object not found: %s", key)
	}

	delete(s.objects, key)
	return nil
}

// Ping always succeeds.
func (s *Storage) Ping(_ context.Context) error {
	return nil
}

// Get returns the stored object bytes and content type, for test assertions.
func (s *Storage) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return obj.Data, obj.ContentType, true
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ storage.Storage = (*Storage)(nil)
