package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/usecase"
)

// Sweeper periodically removes expired pending callbacks
type Sweeper struct {
	callbackUC *usecase.CallbackUsecase
	scheduler  gocron.Scheduler
	interval   time.Duration
	log        logrus.FieldLogger
}

// NewSweeper creates a sweeper that runs every interval once started
func NewSweeper(callbackUC *usecase.CallbackUsecase, interval time.Duration, log logrus.FieldLogger) (*Sweeper, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Sweeper{
		callbackUC: callbackUC,
		scheduler:  scheduler,
		interval:   interval,
		log:        log.WithField("component", "sweeper"),
	}, nil
}

// Start registers the sweep job and starts the scheduler
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.RunOnce(ctx)
		}),
		gocron.WithName("pending-callback-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}
	s.scheduler.Start()
	s.log.WithField("interval", s.interval).Info("Sweeper started")
	return nil
}

// RunOnce sweeps immediately
func (s *Sweeper) RunOnce(ctx context.Context) int {
	n, err := s.callbackUC.Sweep(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Sweep failed")
		return 0
	}
	return n
}

// Stop stops the scheduler and waits for a running sweep
func (s *Sweeper) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return err
	}
	s.log.Info("Sweeper stopped")
	return nil
}
