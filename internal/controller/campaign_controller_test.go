package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/leadgen-backend/internal/auth"
	"github.com/unclebandit/leadgen-backend/internal/controller"
	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/service"
)

// --- Mock Repositories ---

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
}

func (m *MockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.campaigns == nil {
		m.campaigns = map[int]*model.Campaign{}
	}
	c.ID = len(m.campaigns) + 1
	c.CreatedAt = time.Now()
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
	return out, nil
}

func (m *MockCampaignRepo) Update(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	stored.Name, stored.TargetCategory, stored.Location = c.Name, c.TargetCategory, c.Location
	stored.Radius, stored.ScrapingMode, stored.PageLimit, stored.Delay = c.Radius, c.ScrapingMode, c.PageLimit, c.Delay
	c.Status, c.Progress, c.TotalPages, c.LeadsFound = stored.Status, stored.Progress, stored.TotalPages, stored.LeadsFound
	return nil
}

func (m *MockCampaignRepo) UpdateProgress(_ context.Context, id, progress, totalPages, leadsFound int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.campaigns[id]
	c.Progress, c.TotalPages, c.LeadsFound = progress, totalPages, leadsFound
	return nil
}

func (m *MockCampaignRepo) UpdateStatus(_ context.Context, id int, status model.CampaignStatus, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.campaigns[id]
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

type MockLeadRepo struct {
	mu    sync.Mutex
	leads []*model.Lead
}

func (m *MockLeadRepo) Create(_ context.Context, l *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = len(m.leads) + 1
	cp := *l
	m.leads = append(m.leads, &cp)
	return nil
}

func (m *MockLeadRepo) GetByID(_ context.Context, id int) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, appErrors.NewLeadNotFound(id)
}

func (m *MockLeadRepo) ListByUser(context.Context, string) ([]*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Lead{}, m.leads...), nil
}

func (m *MockLeadRepo) ListByCampaign(_ context.Context, campaignID int) ([]*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Lead{}
	for _, l := range m.leads {
		if l.CampaignID == campaignID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *MockLeadRepo) Update(_ context.Context, l *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.leads {
		if existing.ID == l.ID {
			cp := *l
			m.leads[i] = &cp
			return nil
		}
	}
	return appErrors.NewLeadNotFound(l.ID)
}

type MockEventRepo struct{}

func (MockEventRepo) Insert(context.Context, *model.CampaignEvent) error { return nil }
func (MockEventRepo) ListByCampaign(_ context.Context, campaignID, _ int) ([]*model.CampaignEvent, error) {
	return []*model.CampaignEvent{{ID: 1, CampaignID: campaignID, Type: model.EventScrapingCompleted, Payload: json.RawMessage(`{}`)}}, nil
}

type MockStatsRepo struct {
	stats model.Stats
	err   error
}

func (m *MockStatsRepo) GetStats(context.Context, string) (*model.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.stats
	return &s, nil
}

type nopQueue struct{}

func (nopQueue) Publish(string, any) error                { return nil }
func (nopQueue) Subscribe(string, func(any) error) error { return nil }

// --- Helpers ---

type fixture struct {
	campaignRepo *MockCampaignRepo
	router       http.Handler
}

func newFixture(t *testing.T, stats *MockStatsRepo) *fixture {
	t.Helper()
	campaignRepo := &MockCampaignRepo{}
	leadRepo := &MockLeadRepo{}
	if stats == nil {
		stats = &MockStatsRepo{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sim := service.NewSimulator(ctx, campaignRepo, leadRepo, nopQueue{}, time.Hour, nil)
	t.Cleanup(func() {
		cancel()
		sim.Wait()
	})

	campaignCtrl := &controller.CampaignController{CampaignService: &service.CampaignService{
		CampaignRepo: campaignRepo,
		EventRepo:    MockEventRepo{},
		Simulator:    sim,
		Queue:        nopQueue{},
	}}
	leadCtrl := &controller.LeadController{LeadService: &service.LeadService{LeadRepo: leadRepo, CampaignRepo: campaignRepo}}
	statsCtrl := &controller.StatsController{StatsService: &service.StatsService{StatsRepo: stats}}

	r := chi.NewRouter()
	r.Use(asUserFromHeader)
	r.Post("/api/campaigns", campaignCtrl.CreateCampaign)
	r.Get("/api/campaigns", campaignCtrl.ListCampaigns)
	r.Get("/api/campaigns/{id}", campaignCtrl.GetCampaign)
	r.Patch("/api/campaigns/{id}", campaignCtrl.UpdateCampaign)
	r.Delete("/api/campaigns/{id}", campaignCtrl.DeleteCampaign)
	r.Post("/api/campaigns/{id}/start", campaignCtrl.StartCampaign)
	r.Get("/api/campaigns/{id}/events", campaignCtrl.ListEvents)
	r.Get("/api/campaigns/{id}/leads", leadCtrl.ListCampaignLeads)
	r.Post("/api/campaigns/{id}/leads", leadCtrl.CreateLead)
	r.Get("/api/campaigns/{id}/leads/export", leadCtrl.ExportCampaignLeads)
	r.Get("/api/leads/{id}", leadCtrl.GetLead)
	r.Patch("/api/leads/{id}", leadCtrl.UpdateLead)
	r.Get("/api/stats", statsCtrl.GetStats)

	return &fixture{campaignRepo: campaignRepo, router: r}
}

// asUserFromHeader stands in for the session middleware: X-Test-User names the caller.
func asUserFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Test-User"); id != "" {
			r = r.WithContext(auth.WithUser(r.Context(), &model.User{ID: id}))
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fixture) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

// --- Tests ---

func TestCreateCampaignHandler(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/campaigns", "user-1", map[string]any{
		"name":           "Austin dentists",
		"targetCategory": "Dentist",
		"location":       "Austin",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	c := decode[model.Campaign](t, w)
	if c.ID == 0 || c.Status != model.StatusDraft || c.PageLimit != 50 || c.ScrapingMode != model.ModeStandard {
		t.Errorf("unexpected campaign %+v", c)
	}
}

func TestCreateCampaignRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)

	cases := map[string]any{
		"malformed json": `{"name":`,
		"missing name":   map[string]any{"targetCategory": "Dentist", "location": "Austin"},
		"radius":         map[string]any{"name": "x", "targetCategory": "Dentist", "location": "Austin", "radius": 0},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/campaigns", "user-1", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			res := decode[map[string]string](t, w)
			if res["message"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestCampaignRoutesAreScopedToOwner(t *testing.T) {
	f := newFixture(t, nil)
	f.campaignRepo.Create(context.Background(), &model.Campaign{UserID: "user-1", Name: "a", TargetCategory: "b", Location: "c"})

	if w := f.do(t, http.MethodGet, "/api/campaigns/1", "user-1", nil); w.Code != http.StatusOK {
		t.Errorf("owner: expected 200, got %d", w.Code)
	}
	w := f.do(t, http.MethodGet, "/api/campaigns/1", "user-2", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("other user: expected 404, got %d", w.Code)
	}
	if msg := decode[map[string]string](t, w)["message"]; msg != "campaign with ID 1 not found" {
		t.Errorf("unexpected message %q", msg)
	}
	if w := f.do(t, http.MethodGet, "/api/campaigns/abc", "user-1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/api/campaigns", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no session: expected 401, got %d", w.Code)
	}
}

func TestStartCampaignHandler(t *testing.T) {
	f := newFixture(t, nil)
	f.campaignRepo.Create(context.Background(), &model.Campaign{UserID: "user-1", Name: "a", TargetCategory: "b", Location: "c", Status: model.StatusDraft})

	w := f.do(t, http.MethodPost, "/api/campaigns/1/start", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	res := decode[struct {
		Message  string         `json:"message"`
		Campaign model.Campaign `json:"campaign"`
	}](t, w)
	if res.Campaign.Status != model.StatusRunning || res.Campaign.TotalPages != 10 {
		t.Errorf("unexpected campaign %+v", res.Campaign)
	}

	if w := f.do(t, http.MethodPost, "/api/campaigns/1/start", "user-1", nil); w.Code != http.StatusConflict {
		t.Errorf("second start: expected 409, got %d", w.Code)
	}
}

func TestUpdateAndDeleteCampaignHandlers(t *testing.T) {
	f := newFixture(t, nil)
	f.campaignRepo.Create(context.Background(), &model.Campaign{
		UserID: "user-1", Name: "a", TargetCategory: "b", Location: "c",
		Radius: 10, PageLimit: 50, ScrapingMode: model.ModeFast, Status: model.StatusDraft,
	})

	w := f.do(t, http.MethodPatch, "/api/campaigns/1", "user-1", map[string]any{"name": "renamed", "status": "completed"})
	if w.Code != http.StatusConflict {
		t.Errorf("draft to completed: expected 409, got %d", w.Code)
	}
	w = f.do(t, http.MethodPatch, "/api/campaigns/1", "user-1", map[string]any{"name": "renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if c := decode[model.Campaign](t, w); c.Name != "renamed" || c.ScrapingMode != model.ModeFast {
		t.Errorf("unexpected campaign %+v", c)
	}

	if w := f.do(t, http.MethodDelete, "/api/campaigns/1", "user-2", nil); w.Code != http.StatusNotFound {
		t.Errorf("other user delete: expected 404, got %d", w.Code)
	}
	if w := f.do(t, http.MethodDelete, "/api/campaigns/1", "user-1", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", w.Code)
	}
}

func TestLeadHandlers(t *testing.T) {
	f := newFixture(t, nil)
	f.campaignRepo.Create(context.Background(), &model.Campaign{UserID: "user-1", Name: "a", TargetCategory: "Bakery", Location: "Boise"})

	w := f.do(t, http.MethodPost, "/api/campaigns/1/leads", "user-1", map[string]any{"name": "Crumbs", "rating": 4.5})
	if w.Code != http.StatusCreated {
		t.Fatalf("create lead: expected 201, got %d: %s", w.Code, w.Body)
	}
	lead := decode[model.Lead](t, w)
	if lead.City != "Boise" || lead.ContactStatus != model.ContactNotContacted {
		t.Errorf("unexpected lead %+v", lead)
	}

	w = f.do(t, http.MethodPatch, "/api/leads/1", "user-1", map[string]any{"contactStatus": "contacted"})
	if w.Code != http.StatusOK {
		t.Fatalf("update lead: expected 200, got %d", w.Code)
	}
	if got := decode[model.Lead](t, w); got.ContactStatus != model.ContactContacted || got.Name != "Crumbs" {
		t.Errorf("unexpected lead %+v", got)
	}
	if w := f.do(t, http.MethodPatch, "/api/leads/1", "user-1", map[string]any{"rating": 9}); w.Code != http.StatusBadRequest {
		t.Errorf("bad rating: expected 400, got %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/api/leads/1", "user-2", nil); w.Code != http.StatusNotFound {
		t.Errorf("other user: expected 404, got %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/campaigns/1/leads/export", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "campaign-1-leads.csv") {
		t.Errorf("unexpected disposition %q", cd)
	}
	if lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n"); len(lines) != 2 || !strings.Contains(lines[1], "Crumbs") {
		t.Errorf("unexpected csv %q", w.Body)
	}
}

func TestListEventsHandler(t *testing.T) {
	f := newFixture(t, nil)
	f.campaignRepo.Create(context.Background(), &model.Campaign{UserID: "user-1", Name: "a", TargetCategory: "b", Location: "c"})

	w := f.do(t, http.MethodGet, "/api/campaigns/1/events?limit=5", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if events := decode[[]model.CampaignEvent](t, w); len(events) != 1 || events[0].CampaignID != 1 {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestStatsHandler(t *testing.T) {
	f := newFixture(t, &MockStatsRepo{stats: model.Stats{TotalLeads: 4, ValidatedLeads: 3}})

	w := f.do(t, http.MethodGet, "/api/stats", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if s := decode[model.Stats](t, w); s.ValidationRate != 75 {
		t.Errorf("expected 75%% validation rate, got %v", s.ValidationRate)
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	f := newFixture(t, &MockStatsRepo{err: errors.New("pq: password authentication failed")})

	w := f.do(t, http.MethodGet, "/api/stats", "user-1", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if msg := decode[map[string]string](t, w)["message"]; strings.Contains(msg, "pq") {
		t.Errorf("internal detail leaked: %q", msg)
	}
}
