package service

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/queue"
	"github.com/unclebandit/leadgen-backend/internal/repository"
)

const (
	// SimulatedPages is the number of ticks a run takes.
	SimulatedPages = 10
	// LeadsPerPage is how many leads each tick inserts.
	LeadsPerPage = 2
	// maxLeadsPerPage bounds the leadsFound increment per tick.
	maxLeadsPerPage = 5

	DefaultTick = 2 * time.Second
)

// Simulator drives simulated scrape runs. At most one run per campaign is active.
type Simulator struct {
	Campaigns repository.CampaignRepositoryInterface
	Leads     repository.LeadRepositoryInterface
	Queue     queue.Queue
	Tick      time.Duration

	baseCtx context.Context

	mu   sync.Mutex
	runs map[int]*activeRun
	wg   sync.WaitGroup

	randMu sync.Mutex
	rand   *rand.Rand
}

type activeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSimulator returns a simulator whose runs stop when ctx is cancelled.
// A nil r seeds a fresh PCG source.
func NewSimulator(ctx context.Context, campaigns repository.CampaignRepositoryInterface, leads repository.LeadRepositoryInterface,
	q queue.Queue, tick time.Duration, r *rand.Rand) *Simulator {
	if tick <= 0 {
		tick = DefaultTick
	}
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{
		Campaigns: campaigns,
		Leads:     leads,
		Queue:     q,
		Tick:      tick,
		baseCtx:   ctx,
		runs:      make(map[int]*activeRun),
		rand:      r,
	}
}

// Start moves c to running, resets its counters and launches the run. Only an
// active run blocks a start: a status left at running by an aborted run or a
// restart does not.
// c is updated in place to the persisted state.
func (s *Simulator) Start(ctx context.Context, c *model.Campaign) error {
	runCtx, cancel := context.WithCancel(s.baseCtx)
	run := &activeRun{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if _, busy := s.runs[c.ID]; busy {
		s.mu.Unlock()
		cancel()
		return appErrors.Conflict("campaign %d is already running", c.ID)
	}
	s.runs[c.ID] = run
	s.mu.Unlock()

	if err := s.Campaigns.UpdateStatus(ctx, c.ID, model.StatusRunning, 0); err != nil {
		s.forget(c.ID, run)
		cancel()
		close(run.done)
		return err
	}
	if err := s.Campaigns.UpdateProgress(ctx, c.ID, 0, SimulatedPages, 0); err != nil {
		s.forget(c.ID, run)
		cancel()
		close(run.done)
		return err
	}
	c.Status = model.StatusRunning
	c.Progress = 0
	c.TotalPages = SimulatedPages
	c.LeadsFound = 0

	slog.Info("campaign run started", "module", "simulator", "operation", "start", "campaign_id", c.ID, "user_id", c.UserID)

	s.wg.Add(1)
	go s.run(runCtx, run, *c)
	return nil
}

// Cancel stops the active run of campaignID and waits for it to exit.
// It reports whether a run was active.
func (s *Simulator) Cancel(campaignID int) bool {
	s.mu.Lock()
	run, ok := s.runs[campaignID]
	if ok {
		delete(s.runs, campaignID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	run.cancel()
	<-run.done
	return true
}

func (s *Simulator) IsRunning(campaignID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[campaignID]
	return ok
}

// Wait blocks until every run has exited.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

func (s *Simulator) forget(campaignID int, run *activeRun) {
	s.mu.Lock()
	if s.runs[campaignID] == run {
		delete(s.runs, campaignID)
	}
	s.mu.Unlock()
}

func (s *Simulator) run(ctx context.Context, run *activeRun, c model.Campaign) {
	defer s.wg.Done()
	defer close(run.done)
	defer run.cancel()
	defer s.forget(c.ID, run)

	log := slog.With("module", "simulator", "campaign_id", c.ID, "user_id", c.UserID)

	ticker := time.NewTicker(s.Tick)
	defer ticker.Stop()

	page, leadsFound := 0, 0
	for {
		select {
		case <-ctx.Done():
			log.Info("campaign run stopped", "operation", "run", "outcome", "cancelled", "page", page)
			return
		case <-ticker.C:
		}

		page++
		leadsFound += s.intN(maxLeadsPerPage) + 1
		progress := int(math.Round(float64(page) / float64(SimulatedPages) * 100))

		if err := s.Campaigns.UpdateProgress(ctx, c.ID, progress, SimulatedPages, leadsFound); err != nil {
			log.Error("persist progress", "operation", "tick", "outcome", "aborted", "page", page, "error", err)
			return
		}
		for range LeadsPerPage {
			lead := s.newLead(&c)
			if err := s.Leads.Create(ctx, lead); err != nil {
				log.Error("insert generated lead", "operation", "tick", "outcome", "aborted", "page", page, "error", err)
				return
			}
		}
		publishEvent(s.Queue, c.UserID, c.ID, model.EventScrapingProgress, model.ProgressMessage{
			Type:        model.EventScrapingProgress,
			CampaignID:  c.ID,
			Progress:    progress,
			CurrentPage: page,
			TotalPages:  SimulatedPages,
			LeadsFound:  leadsFound,
		})

		if page < SimulatedPages {
			continue
		}
		if err := s.Campaigns.UpdateStatus(ctx, c.ID, model.StatusCompleted, 100); err != nil {
			log.Error("persist completion", "operation", "complete", "outcome", "aborted", "error", err)
			return
		}
		publishEvent(s.Queue, c.UserID, c.ID, model.EventScrapingCompleted, model.CompletedMessage{
			Type:       model.EventScrapingCompleted,
			CampaignID: c.ID,
		})
		log.Info("campaign run finished", "operation", "complete", "outcome", "completed", "leads_found", leadsFound)
		return
	}
}

func (s *Simulator) intN(n int) int {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.rand.IntN(n)
}

func (s *Simulator) newLead(c *model.Campaign) *model.Lead {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return generateLead(s.rand, c)
}
