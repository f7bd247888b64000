package cron

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule runs the sweep every ten minutes
const DefaultSchedule = "0 */10 * * * *"

// IdleForgetter drops guild state untouched since cutoff
type IdleForgetter interface {
	ForgetIdle(cutoff time.Time) []string
}

// IdleSweeper periodically evicts queue state of guilds that went quiet
type IdleSweeper struct {
	cron      *cron.Cron
	cronEntry cron.EntryID
	store     IdleForgetter
	ttl       time.Duration
	schedule  string
	now       func() time.Time
	logger    *zap.Logger
	mutex     sync.Mutex
	isRunning bool
}

// NewIdleSweeper creates a sweeper. An empty schedule uses DefaultSchedule.
func NewIdleSweeper(store IdleForgetter, schedule string, ttl time.Duration, logger *zap.Logger) (*IdleSweeper, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	sweeper := &IdleSweeper{
		cron:     cron.New(cron.WithSeconds()),
		store:    store,
		ttl:      ttl,
		schedule: schedule,
		now:      time.Now,
		logger:   logger.Named("sweeper"),
	}

	entryID, err := sweeper.cron.AddFunc(schedule, func() { sweeper.Sweep() })
	if err != nil {
		return nil, fmt.Errorf("failed to schedule idle sweep %q: %w", schedule, err)
	}
	sweeper.cronEntry = entryID
	return sweeper, nil
}

// Start starts the cron scheduler
func (s *IdleSweeper) Start() {
	s.cron.Start()
	s.logger.Info("idle sweeper started",
		zap.String("schedule", s.schedule),
		zap.Duration("ttl", s.ttl))
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *IdleSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("idle sweeper stopped")
}

// Sweep forgets idle guilds now and returns their IDs. Overlapping calls are skipped.
func (s *IdleSweeper) Sweep() []string {
	s.mutex.Lock()
	if s.isRunning {
		s.mutex.Unlock()
		s.logger.Debug("sweep already in progress, skipping")
		return nil
	}
	s.isRunning = true
	s.mutex.Unlock()

	defer func() {
		s.mutex.Lock()
		s.isRunning = false
		s.mutex.Unlock()
	}()

	forgotten := s.store.ForgetIdle(s.now().Add(-s.ttl))
	if len(forgotten) > 0 {
		s.logger.Info("evicted idle guilds",
			zap.Int("count", len(forgotten)),
			zap.Strings("guild_ids", forgotten))
	}
	return forgotten
}

// NextRun returns the next scheduled sweep
func (s *IdleSweeper) NextRun() time.Time {
	return s.cron.Entry(s.cronEntry).Next
}

// Schedule returns the cron schedule
func (s *IdleSweeper) Schedule() string {
	return s.schedule
}
