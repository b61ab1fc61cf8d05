package infrastructure

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs a job once at start and then at a fixed interval.
type Scheduler struct {
	cron     *cron.Cron
	job      cron.Job
	interval time.Duration
	log      zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
}

func NewScheduler(interval time.Duration, loc *time.Location, log zerolog.Logger, run func(context.Context)) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	cl := CronLogger{Log: log}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithLogger(cl)),
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() { run(s.ctx) }))
	return s
}

// Start schedules the job and fires the first run immediately. Only the first
// call has an effect.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.cron.Schedule(cron.Every(s.interval), s.job)
	s.cron.Start()

	go func() {
		defer close(s.done)
		s.job.Run()
	}()
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
}

// Stop prevents further runs and waits for the in-flight one until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	if !s.started.Load() {
		s.cancel()
		return
	}

	select {
	case <-waitAll(stopped.Done(), s.done):
		s.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out, cancelling in-flight run")
	}
	s.cancel()
}

func waitAll(chans ...<-chan struct{}) <-chan struct{} {
	all := make(chan struct{})
	go func() {
		for _, c := range chans {
			<-c
		}
		close(all)
	}()
	return all
}
