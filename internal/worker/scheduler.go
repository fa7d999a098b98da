package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	natsadapter "github.com/magnus-flipper/sniper-service/internal/adapter/nats"
	"github.com/magnus-flipper/sniper-service/internal/app/config"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/magnus-flipper/sniper-service/internal/platform/metrics"
	"github.com/magnus-flipper/sniper-service/internal/repository"
	"github.com/robfig/cron/v3"
)

// Scheduler enqueues scan jobs for active profiles on an interval. A scan
// lease per profile gates the cadence: while the lease from the previous
// enqueue is alive, the profile is skipped, so a profile is never scanned
// concurrently and never more often than its configured interval.
type Scheduler struct {
	profiles  repository.ProfileRepository
	lease     repository.ScanLease
	publisher natsadapter.MessagePublisher
	log       logger.Logger
	metrics   *metrics.PipelineMetrics
	cfg       config.SchedulerConfig
	cron      *cron.Cron
}

func NewScheduler(
	profiles repository.ProfileRepository,
	lease repository.ScanLease,
	publisher natsadapter.MessagePublisher,
	log logger.Logger,
	m *metrics.PipelineMetrics,
	cfg config.SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		profiles:  profiles,
		lease:     lease,
		publisher: publisher,
		log:       log,
		metrics:   m,
		cfg:       cfg,
	}
}

func (s *Scheduler) Start() error {
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.cfg.TickInterval)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("failed to schedule scan tick: %w", err)
	}
	s.cron.Start()
	s.log.Infof("Scheduler started, tick interval %s", s.cfg.TickInterval)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TickInterval)
	defer cancel()

	profiles, err := s.profiles.ListActive(ctx)
	if err != nil {
		s.log.Errorf("Failed to list active profiles: %v", err)
		return
	}

	enqueued := 0
	for i := range profiles {
		ok, err := s.enqueueScan(ctx, &profiles[i])
		if err != nil {
			s.log.Errorf("Failed to enqueue scan for profile %s: %v", profiles[i].ID, err)
			continue
		}
		if ok {
			enqueued++
		}
	}
	if enqueued > 0 {
		s.log.Infof("Enqueued %d scan jobs (%d active profiles)", enqueued, len(profiles))
	}
}

func (s *Scheduler) enqueueScan(ctx context.Context, profile *entity.SniperProfile) (bool, error) {
	if err := profile.Validate(); err != nil {
		return false, fmt.Errorf("invalid profile: %w", err)
	}

	leaseTTL := profile.ScanInterval()
	if leaseTTL > s.cfg.MaxLeaseTTL {
		leaseTTL = s.cfg.MaxLeaseTTL
	}

	acquired, err := s.lease.Acquire(ctx, profile.ID, leaseTTL)
	if err != nil {
		return false, fmt.Errorf("lease acquisition failed: %w", err)
	}
	if !acquired {
		return false, nil
	}

	job := ScanProfileJob{
		JobID:      uuid.NewString(),
		Profile:    *profile,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, SubjectScanProfile, job); err != nil {
		// Free the lease so the next tick can retry instead of waiting out
		// the TTL for a job that never made it onto the queue.
		if releaseErr := s.lease.Release(ctx, profile.ID); releaseErr != nil {
			s.log.Warnf("Failed to release scan lease for profile %s: %v", profile.ID, releaseErr)
		}
		return false, fmt.Errorf("publish failed: %w", err)
	}

	s.metrics.ObserveScanEnqueued()
	return true, nil
}
