package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/adapter"
	"media-ai-tagger/internal/domain/ports/repository"
	"media-ai-tagger/internal/infra/security"
)

var testLogger = zerolog.Nop()

func newTestVault() *security.Vault {
	v, err := security.NewVault("auth-seed", "secure-seed")
	if err != nil {
		panic(err)
	}
	return v
}

// memOptionsRepo is a small in-memory implementation used by unit tests.
type memOptionsRepo struct {
	mu     sync.RWMutex
	store  map[string]string
	getErr error
	setErr error
}

func newMemOptionsRepo() *memOptionsRepo {
	return &memOptionsRepo{store: make(map[string]string)}
}

func (m *memOptionsRepo) Get(ctx context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.store[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *memOptionsRepo) Set(ctx context.Context, key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *memOptionsRepo) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// memAttachmentStore implements repository.AttachmentStore in memory.
type memAttachmentStore struct {
	mu      sync.RWMutex
	store   map[int64]*model.Attachment
	saveErr error
}

func newMemAttachmentStore() *memAttachmentStore {
	return &memAttachmentStore{store: make(map[int64]*model.Attachment)}
}

func (m *memAttachmentStore) add(a model.Attachment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := a
	m.store[a.ID] = &cp
}

func (m *memAttachmentStore) Find(ctx context.Context, id int64) (*model.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAttachmentStore) Exists(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.store[id]
	return ok, nil
}

func (m *memAttachmentStore) SaveMetadata(ctx context.Context, id int64, md model.ImageMetadata, provider string, processedAt time.Time, flags repository.FieldFlags) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if flags.Title {
		a.Title = md.Title
	}
	if flags.Description {
		a.Description = md.Description
	}
	if flags.Caption {
		a.Caption = md.Caption
	}
	a.AltText = md.AltText
	a.Tags = append([]string(nil), md.Tags...)
	a.AIProcessed = true
	a.AIProvider = provider
	t := processedAt
	a.AIProcessedAt = &t
	a.AIConfidence = md.Confidence
	return nil
}

func (m *memAttachmentStore) ClearAIFields(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Title = ""
	a.Description = ""
	a.Caption = ""
	a.AltText = ""
	a.Tags = nil
	a.AIProcessed = false
	a.AIProvider = ""
	a.AIProcessedAt = nil
	a.AIConfidence = nil
	a.AIRawResponse = ""
	return nil
}

func (m *memAttachmentStore) IsProcessed(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	return a.AIProcessed, nil
}

// memQueueRepo implements repository.QueueRepository in memory, FIFO by
// insertion order.
type memQueueRepo struct {
	mu    sync.Mutex
	store map[string]*model.QueueItem
	order []string
}

func newMemQueueRepo() *memQueueRepo {
	return &memQueueRepo{store: make(map[string]*model.QueueItem)}
}

func (m *memQueueRepo) Enqueue(ctx context.Context, item *model.QueueItem) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	m.store[cp.ID] = &cp
	m.order = append(m.order, cp.ID)
	return cp.ID, nil
}

func (m *memQueueRepo) Update(ctx context.Context, item *model.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[item.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *item
	m.store[item.ID] = &cp
	return nil
}

func (m *memQueueRepo) ClaimPending(ctx context.Context, limit int) ([]*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var claimed []*model.QueueItem
	for _, id := range m.order {
		if len(claimed) == limit {
			break
		}
		item, ok := m.store[id]
		if !ok || item.Status != model.QueueStatusPending {
			continue
		}
		item.Status = model.QueueStatusProcessing
		item.UpdatedAt = time.Now()
		cp := *item
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (m *memQueueRepo) Find(ctx context.Context, id string) (*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *memQueueRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

func (m *memQueueRepo) CountPending(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, item := range m.store {
		if item.Status == model.QueueStatusPending {
			n++
		}
	}
	return n, nil
}

func (m *memQueueRepo) DeletePending(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, item := range m.store {
		if item.Status == model.QueueStatusPending {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *memQueueRepo) DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, item := range m.store {
		if item.Status == model.QueueStatusFailed && item.UpdatedAt.Before(cutoff) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *memQueueRepo) ReleaseStale(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, item := range m.store {
		if item.Status == model.QueueStatusProcessing && item.UpdatedAt.Before(cutoff) {
			item.Status = model.QueueStatusPending
			n++
		}
	}
	return n, nil
}

// fakeProvider is a canned adapter.VisionProvider.
type fakeProvider struct {
	name       string
	configured bool
	md         model.ImageMetadata
	usage      adapter.AnalysisUsage
	err        error
	calls      int
}

func (f *fakeProvider) AnalyzeImage(ctx context.Context, imagePath string) (model.ImageMetadata, adapter.AnalysisUsage, error) {
	f.calls++
	if f.err != nil {
		return model.ImageMetadata{}, adapter.AnalysisUsage{}, f.err
	}
	return f.md, f.usage, nil
}

func (f *fakeProvider) TestConnection(ctx context.Context, apiKeyOverride string) error { return f.err }
func (f *fakeProvider) IsConfigured() bool                                             { return f.configured }
func (f *fakeProvider) Name() string                                                   { return f.name }
func (f *fakeProvider) RateLimit() int                                                 { return 60 }

// fakeFactory returns one canned provider for every name.
type fakeFactory struct {
	provider *fakeProvider
	err      error
	lastName string
}

func (f *fakeFactory) Provider(ctx context.Context, name string) (adapter.VisionProvider, error) {
	f.lastName = name
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

func goodMetadata() model.ImageMetadata {
	return model.ImageMetadata{
		Title:       "A red bicycle",
		Description: "A red bicycle leaning against a brick wall",
		AltText:     "Red bicycle by a wall",
		Caption:     "Bicycle at rest",
		Tags:        []string{"bicycle", "red", "wall"},
	}
}

func newTestSettingsUC(options repository.OptionsRepository) *SettingsUseCase {
	return NewSettingsUseCase(options, newTestVault(), "en_US", &testLogger)
}
