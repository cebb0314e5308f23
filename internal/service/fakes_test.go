package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/repository"
)

// memUserStore is an in-memory UserStore. Func fields override behaviour.
type memUserStore struct {
	mu      sync.Mutex
	byEmail map[string]model.User
	creates int
	lookups int

	GetByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	CreateFunc     func(ctx context.Context, user *model.User) error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: make(map[string]model.User)}
}

func (m *memUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	m.lookups++
	m.mu.Unlock()
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUserStore) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	m.creates++
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return m.insert(user)
}

func (m *memUserStore) insert(user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	user.ID = uuid.NewString()
	m.byEmail[user.Email] = *user
	return nil
}

// memCollectionStore is an in-memory CollectionStore.
type memCollectionStore struct {
	mu      sync.Mutex
	entries map[string]model.CollectionEntry
	deletes int

	CreateFunc func(ctx context.Context, entry *model.CollectionEntry) error
}

func newMemCollectionStore() *memCollectionStore {
	return &memCollectionStore{entries: make(map[string]model.CollectionEntry)}
}

func (m *memCollectionStore) Create(ctx context.Context, entry *model.CollectionEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID == entry.UserID && e.MediaID == entry.MediaID && e.MediaType == entry.MediaType {
			return repository.ErrDuplicateEntry
		}
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC().Add(time.Duration(len(m.entries)) * time.Millisecond)
	m.entries[entry.ID] = *entry
	return nil
}

func (m *memCollectionStore) GetByID(ctx context.Context, id string) (*model.CollectionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, repository.ErrEntryNotFound
	}
	return &e, nil
}

func (m *memCollectionStore) GetByMedia(ctx context.Context, userID, mediaID, mediaType string) (*model.CollectionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID == userID && e.MediaID == mediaID && e.MediaType == mediaType {
			return &e, nil
		}
	}
	return nil, repository.ErrEntryNotFound
}

func (m *memCollectionStore) ListByUser(ctx context.Context, userID string) ([]model.CollectionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CollectionEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memCollectionStore) DeleteOwned(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return repository.ErrEntryNotFound
	}
	m.deletes++
	delete(m.entries, id)
	return nil
}
