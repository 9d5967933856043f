package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const orphanSweepSchedule = "@hourly"

// ExpirySweeper drops in-memory state past its lifetime.
type ExpirySweeper interface {
	SweepExpired() int
}

type orphanCleaner interface {
	CleanupOlderThan(prefix string, ttl time.Duration, keep func(key string) bool) ([]string, error)
}

type routeImageReferences interface {
	ListRouteImageURLs(ctx context.Context) ([]string, error)
}

// MaintenanceConfig schedules housekeeping jobs.
type MaintenanceConfig struct {
	SessionSweepSchedule string
	OrphanTTL            time.Duration
	PublicBaseURL        string
	Location             *time.Location
}

// MaintenanceService runs periodic housekeeping: expiring idle authoring
// sessions and stale delete intents, and removing stored route images no
// event references.
type MaintenanceService struct {
	cron     *cron.Cron
	sweepers []ExpirySweeper
	storage  orphanCleaner
	refs     routeImageReferences
	logger   *zap.Logger
	cfg      MaintenanceConfig
}

// NewMaintenanceService wires dependencies. storage and refs may be nil to
// skip orphan cleanup.
func NewMaintenanceService(sweepers []ExpirySweeper, storage orphanCleaner, refs routeImageReferences, logger *zap.Logger, cfg MaintenanceConfig) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionSweepSchedule == "" {
		cfg.SessionSweepSchedule = "@every 1m"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &MaintenanceService{
		cron:     cron.New(cron.WithLocation(cfg.Location), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweepers: sweepers,
		storage:  storage,
		refs:     refs,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start registers the jobs and starts the scheduler.
func (m *MaintenanceService) Start(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.cfg.SessionSweepSchedule, m.SweepExpired); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	if m.storage != nil && m.refs != nil && m.cfg.OrphanTTL > 0 {
		if _, err := m.cron.AddFunc(orphanSweepSchedule, func() {
			if _, err := m.SweepOrphans(ctx); err != nil {
				m.logger.Warn("route image orphan sweep failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule orphan sweep: %w", err)
		}
	}
	m.cron.Start()
	m.logger.Info("maintenance scheduler started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// SweepExpired runs every registered expiry sweep once.
func (m *MaintenanceService) SweepExpired() {
	for _, sweeper := range m.sweepers {
		sweeper.SweepExpired()
	}
}

// Stop halts the scheduler and waits for running jobs.
func (m *MaintenanceService) Stop() {
	<-m.cron.Stop().Done()
}

// SweepOrphans deletes stored route images older than the orphan TTL that no
// event references.
func (m *MaintenanceService) SweepOrphans(ctx context.Context) ([]string, error) {
	urls, err := m.refs.ListRouteImageURLs(ctx)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{}, len(urls))
	base := strings.TrimRight(m.cfg.PublicBaseURL, "/") + "/"
	for _, url := range urls {
		if strings.HasPrefix(url, base) {
			referenced[strings.TrimPrefix(url, base)] = struct{}{}
		}
	}
	deleted, err := m.storage.CleanupOlderThan(routeImagePrefix, m.cfg.OrphanTTL, func(key string) bool {
		_, ok := referenced[key]
		return ok
	})
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		m.logger.Info("orphaned route images removed", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}
