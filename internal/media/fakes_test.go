package media

import (
	"context"
	"sync"
	"time"

	"github.com/abgdnv/catalog/internal/objectstore"
	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of objectstore.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListBuckets(ctx context.Context) ([]objectstore.Bucket, error) {
	args := m.Called(ctx)
	var buckets []objectstore.Bucket
	if args.Get(0) != nil {
		buckets = args.Get(0).([]objectstore.Bucket)
	}
	return buckets, args.Error(1)
}

func (m *MockStore) CreateBucket(ctx context.Context, name string, public bool) (objectstore.CreateOutcome, error) {
	args := m.Called(ctx, name, public)
	return args.Get(0).(objectstore.CreateOutcome), args.Error(1)
}

func (m *MockStore) Upload(ctx context.Context, in objectstore.UploadInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockStore) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}

// memoryStore keeps buckets in memory and fails uploads according to a script.
type memoryStore struct {
	mu        sync.Mutex
	buckets   map[string]bool
	creates   int
	uploads   []objectstore.UploadInput
	failures  []error
	listErr   error
	createErr error
}

func newMemoryStore(buckets ...string) *memoryStore {
	s := &memoryStore{buckets: map[string]bool{}}
	for _, b := range buckets {
		s.buckets[b] = true
	}
	return s
}

func (s *memoryStore) ListBuckets(context.Context) ([]objectstore.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []objectstore.Bucket
	for name := range s.buckets {
		out = append(out, objectstore.Bucket{Name: name})
	}
	return out, nil
}

func (s *memoryStore) CreateBucket(_ context.Context, name string, _ bool) (objectstore.CreateOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return objectstore.CreateFailed, s.createErr
	}
	if s.buckets[name] {
		return objectstore.AlreadyExists, nil
	}
	s.buckets[name] = true
	return objectstore.Created, nil
}

func (s *memoryStore) Upload(_ context.Context, in objectstore.UploadInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, in)
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		if err != nil {
			return "", err
		}
	}
	return in.Path, nil
}

func (s *memoryStore) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}

// recordingSleeper records requested waits without sleeping.
type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return r.err
}
