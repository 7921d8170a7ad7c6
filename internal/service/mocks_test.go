package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
)

// --- Mock Repositories ---

type MockCampaignRepo struct {
	mu          sync.Mutex
	campaigns   map[int]*model.Campaign
	nextID      int
	leadsFound  map[int][]int
	progressErr error
	updateErr   error
	statusErr   error

	// beforeUpdate runs inside Update before the row is written, without the lock held.
	beforeUpdate func()
}

func NewMockCampaignRepo(seed ...*model.Campaign) *MockCampaignRepo {
	m := &MockCampaignRepo{campaigns: map[int]*model.Campaign{}, leadsFound: map[int][]int{}}
	for _, c := range seed {
		m.Create(context.Background(), c)
	}
	return m
}

func (m *MockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) GetByID(_ context.Context, id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) ListByUser(_ context.Context, userID string) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MockCampaignRepo) Update(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	if m.beforeUpdate != nil {
		m.mu.Unlock()
		m.beforeUpdate()
		m.mu.Lock()
	}
	if m.updateErr != nil {
		return m.updateErr
	}
	stored.Name, stored.TargetCategory, stored.Location = c.Name, c.TargetCategory, c.Location
	stored.Radius, stored.ScrapingMode, stored.PageLimit, stored.Delay = c.Radius, c.ScrapingMode, c.PageLimit, c.Delay
	stored.UpdatedAt = time.Now()
	c.Status, c.Progress, c.TotalPages, c.LeadsFound = stored.Status, stored.Progress, stored.TotalPages, stored.LeadsFound
	c.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MockCampaignRepo) UpdateProgress(_ context.Context, id, progress, totalPages, leadsFound int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.progressErr != nil && leadsFound > 0 {
		return m.progressErr
	}
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Progress, c.TotalPages, c.LeadsFound = progress, totalPages, leadsFound
	m.leadsFound[id] = append(m.leadsFound[id], leadsFound)
	return nil
}

func (m *MockCampaignRepo) UpdateStatus(_ context.Context, id int, status model.CampaignStatus, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return m.statusErr
	}
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Status, c.Progress = status, progress
	return nil
}

func (m *MockCampaignRepo) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(m.campaigns, id)
	return nil
}

func (m *MockCampaignRepo) history(id int) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.leadsFound[id]...)
}

type MockLeadRepo struct {
	mu     sync.Mutex
	leads  map[int]*model.Lead
	nextID int
	// campaigns resolves ownership for ListByUser.
	campaigns *MockCampaignRepo
}

func NewMockLeadRepo(campaigns *MockCampaignRepo) *MockLeadRepo {
	return &MockLeadRepo{leads: map[int]*model.Lead{}, campaigns: campaigns}
}

func (m *MockLeadRepo) Create(_ context.Context, l *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.ID = m.nextID
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	cp := *l
	m.leads[l.ID] = &cp
	return nil
}

func (m *MockLeadRepo) GetByID(_ context.Context, id int) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, appErrors.NewLeadNotFound(id)
	}
	cp := *l
	return &cp, nil
}

func (m *MockLeadRepo) ListByUser(ctx context.Context, userID string) ([]*model.Lead, error) {
	owned := map[int]bool{}
	cs, _ := m.campaigns.ListByUser(ctx, userID)
	for _, c := range cs {
		owned[c.ID] = true
	}
	return m.filter(func(l *model.Lead) bool { return owned[l.CampaignID] }), nil
}

func (m *MockLeadRepo) ListByCampaign(_ context.Context, campaignID int) ([]*model.Lead, error) {
	return m.filter(func(l *model.Lead) bool { return l.CampaignID == campaignID }), nil
}

func (m *MockLeadRepo) filter(keep func(*model.Lead) bool) []*model.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Lead{}
	for _, l := range m.leads {
		if keep(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockLeadRepo) Update(_ context.Context, l *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[l.ID]; !ok {
		return appErrors.NewLeadNotFound(l.ID)
	}
	cp := *l
	m.leads[l.ID] = &cp
	return nil
}

func (m *MockLeadRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leads)
}

type MockEventRepo struct {
	mu     sync.Mutex
	events []*model.CampaignEvent
	err    error
	limit  int
}

func (m *MockEventRepo) Insert(_ context.Context, e *model.CampaignEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.ID = len(m.events) + 1
	e.CreatedAt = time.Now()
	m.events = append(m.events, e)
	return nil
}

func (m *MockEventRepo) ListByCampaign(_ context.Context, campaignID, limit int) ([]*model.CampaignEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = limit
	out := []*model.CampaignEvent{}
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].CampaignID == campaignID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (m *MockUserRepo) Upsert(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = map[string]*model.User{}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, appErrors.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

type MockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	gets     int
}

func (m *MockSessionRepo) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = map[string]*model.Session{}
	}
	s.CreatedAt = time.Now()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MockSessionRepo) Get(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	s, ok := m.sessions[id]
	if !ok {
		return nil, appErrors.NotFound("session", id)
	}
	cp := *s
	return &cp, nil
}

func (m *MockSessionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type MockStatsRepo struct {
	stats model.Stats
	err   error
}

func (m *MockStatsRepo) GetStats(_ context.Context, _ string) (*model.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.stats
	return &s, nil
}

type MockFileRepo struct {
	mu    sync.Mutex
	files map[int]*model.File
	err   error
}

func (m *MockFileRepo) Create(_ context.Context, f *model.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.files == nil {
		m.files = map[int]*model.File{}
	}
	f.ID = len(m.files) + 1
	f.CreatedAt = time.Now()
	cp := *f
	m.files[f.ID] = &cp
	return nil
}

func (m *MockFileRepo) ListByUser(_ context.Context, userID string) ([]*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.File{}
	for _, f := range m.files {
		if f.UserID == userID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockFileRepo) GetByID(_ context.Context, id int) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, appErrors.NewFileNotFound(id)
	}
	cp := *f
	return &cp, nil
}

// --- Mock collaborators ---

type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (s *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = map[string][]byte{}
	}
	s.blobs[key] = data
	return nil
}

func (s *memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, appErrors.NotFound("blob", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, id string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[id]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, id, userID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = userID
	c.ttls[id] = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

// recordingQueue keeps every published envelope in order.
type recordingQueue struct {
	mu        sync.Mutex
	envelopes []model.Envelope
}

func (q *recordingQueue) Publish(_ string, payload any) error {
	env, ok := payload.(model.Envelope)
	if !ok {
		return errors.New("unexpected payload")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.envelopes = append(q.envelopes, env)
	return nil
}

func (q *recordingQueue) Subscribe(string, func(any) error) error { return nil }

func (q *recordingQueue) published() []model.Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.Envelope(nil), q.envelopes...)
}
