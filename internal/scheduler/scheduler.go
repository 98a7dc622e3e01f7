package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MarketPulse/internal/dashboard"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
)

// Dashboard is the part of the dashboard service the watch job needs.
type Dashboard interface {
	Watch(ctx context.Context) (*dashboard.Overview, error)
	Overview(ctx context.Context, windowDays int) (*dashboard.Overview, error)
	History(limit int) ([]recorder.PassSummary, error)
}

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the periodic watch pass and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Dashboard Dashboard
	Notifier  Sender
	Ctx       context.Context

	log zerolog.Logger

	mu       sync.Mutex
	previous map[model.Symbol]model.AlertState
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, d Dashboard, n Sender, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Dashboard: d,
		Notifier:  n,
		Ctx:       ctx,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the watch job on the given six-field cron spec.
func (s *Scheduler) Register(watchCron string) error {
	if _, err := s.Cron.AddFunc(watchCron, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunWatchNow executes the watch task immediately.
func (s *Scheduler) RunWatchNow() {
	s.watchTask()
}

func (s *Scheduler) watchTask() {
	s.log.Info().Msg("running watch task")
	ov, err := s.Dashboard.Watch(s.Ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("watch pass")
		return
	}
	changes := s.transitions(ov)
	if len(changes) == 0 {
		s.log.Debug().Msg("no alert state changes")
		return
	}
	s.log.Info().Int("changes", len(changes)).Msg("alert state changed")
	s.trySend(notifier.FormatChanges(changes))
}

// transitions compares ov with the previous watch pass and keeps ov as the
// new baseline. Only moves into Warning or Unknown are reported; the first
// pass is compared against an all-Normal baseline.
func (s *Scheduler) transitions(ov *dashboard.Overview) []notifier.StateChange {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []notifier.StateChange
	for _, sym := range model.SortSymbols(ov.States) {
		to := ov.States[sym]
		from, seen := s.previous[sym]
		if !seen {
			from = model.Normal
		}
		if from == to || to == model.Normal {
			continue
		}
		out = append(out, notifier.StateChange{Symbol: sym, From: from, To: to, Value: ov.Latest[sym]})
	}
	s.previous = ov.States
	return out
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd := strings.Fields(command)
	if len(cmd) == 0 {
		return notifier.HelpText()
	}
	// group chats address commands as /alerts@botname
	name, _, _ := strings.Cut(cmd[0], "@")

	switch name {
	case "/alerts":
		ov, err := s.Dashboard.Overview(ctx, 0)
		if err != nil {
			return fmt.Sprintf("❌ overview failed: %v", err)
		}
		return notifier.FormatAlerts(ov)
	case "/status":
		ov, err := s.Dashboard.Overview(ctx, 0)
		if err != nil {
			return fmt.Sprintf("❌ overview failed: %v", err)
		}
		passes, err := s.Dashboard.History(5)
		if err != nil {
			s.log.Warn().Err(err).Msg("load pass history")
		}
		return notifier.FormatStatus(ov, passes)
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
