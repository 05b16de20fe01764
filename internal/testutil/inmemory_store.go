// Package testutil provides in-memory repositories for service and API tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/repository"
)

func notFound(what string, id any) error {
	return ierr.NewErrorf("%s %v not found", what, id).Mark(ierr.ErrNotFound)
}

// InMemoryClientStore implements repository.ClientRepository
type InMemoryClientStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Client
}

func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{items: make(map[int64]domain.Client)}
}

func (s *InMemoryClientStore) Create(ctx context.Context, c *domain.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.items[c.ID] = *c
	return nil
}

func (s *InMemoryClientStore) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return nil, notFound("client", id)
	}
	return &c, nil
}

func (s *InMemoryClientStore) List(ctx context.Context) ([]*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Client, 0, len(s.items))
	for _, c := range s.items {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryClientStore) Update(ctx context.Context, c *domain.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[c.ID]; !ok {
		return notFound("client", c.ID)
	}
	c.UpdatedAt = time.Now()
	s.items[c.ID] = *c
	return nil
}

// InMemoryLoginStore implements repository.LoginRepository
type InMemoryLoginStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.DeviceLogin
}

func NewInMemoryLoginStore() *InMemoryLoginStore {
	return &InMemoryLoginStore{items: make(map[int64]domain.DeviceLogin)}
}

func (s *InMemoryLoginStore) Create(ctx context.Context, l *domain.DeviceLogin) error {
	if err := l.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	l.ID = s.nextID
	s.items[l.ID] = *l
	return nil
}

func (s *InMemoryLoginStore) GetByID(ctx context.Context, id int64) (*domain.DeviceLogin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.items[id]
	if !ok {
		return nil, notFound("login", id)
	}
	return &l, nil
}

func (s *InMemoryLoginStore) ListByClient(ctx context.Context, clientID int64) ([]*domain.DeviceLogin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.DeviceLogin
	for _, l := range s.items {
		if l.ClientID == clientID {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryLoginStore) Update(ctx context.Context, l *domain.DeviceLogin) error {
	if err := l.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[l.ID]; !ok {
		return notFound("login", l.ID)
	}
	s.items[l.ID] = *l
	return nil
}

// InMemoryEntryStore implements repository.TimeEntryRepository
type InMemoryEntryStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.TimeEntry
}

func NewInMemoryEntryStore() *InMemoryEntryStore {
	return &InMemoryEntryStore{items: make(map[int64]domain.TimeEntry)}
}

func (s *InMemoryEntryStore) Create(ctx context.Context, e *domain.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.items[e.ID] = *e
	return nil
}

func (s *InMemoryEntryStore) GetByID(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return nil, notFound("time entry", id)
	}
	return &e, nil
}

func (s *InMemoryEntryStore) Update(ctx context.Context, e *domain.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		return notFound("time entry", e.ID)
	}
	e.UpdatedAt = time.Now()
	s.items[e.ID] = *e
	return nil
}

func (s *InMemoryEntryStore) List(ctx context.Context, f repository.EntryFilter) ([]*domain.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.TimeEntry
	for _, e := range s.items {
		if f.ClientID != nil && e.ClientID != *f.ClientID {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		if f.Paid != nil && e.IsPaid != *f.Paid {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
