// Package cron runs jobs on a cron schedule.
//
// The CronTrigger type wraps a Runnable and executes it according to a cron
// schedule. It is designed to be started once and run until the context is
// cancelled.
//
// Example usage:
//
//	trigger, err := cron.NewCronTrigger("0 7 * * 1-5", reporter, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	trigger.Start(ctx)  // Returns immediately, runs in background
//	<-ctx.Done()        // Wait for shutdown signal
package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// Runnable is implemented by anything that can be triggered by the scheduler.
type Runnable interface {
	Run(ctx context.Context) error
}

// CronTrigger executes a Runnable according to a cron schedule.
type CronTrigger struct {
	spec     string
	schedule cron.Schedule
	runnable Runnable
	logger   *slog.Logger
}

// ParseSpec parses a standard 5 field cron spec (minute, hour, day, month,
// weekday) or a descriptor such as "@daily". Returns ErrInvalidCronSpec if the
// spec cannot be parsed.
func ParseSpec(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}
	return schedule, nil
}

// NewCronTrigger creates a new CronTrigger with the given cron specification.
func NewCronTrigger(spec string, runnable Runnable, logger *slog.Logger) (*CronTrigger, error) {
	schedule, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	return &CronTrigger{
		spec:     spec,
		schedule: schedule,
		runnable: runnable,
		logger:   logger,
	}, nil
}

// Spec returns the cron spec the trigger was created with.
func (ct *CronTrigger) Spec() string {
	return ct.spec
}

// Start launches a goroutine that triggers runs according to the cron schedule.
// Returns immediately. The goroutine exits when ctx is cancelled.
func (ct *CronTrigger) Start(ctx context.Context) {
	go ct.loop(ctx)
}

// NextRun returns the next scheduled run time from now.
func (ct *CronTrigger) NextRun() time.Time {
	return ct.schedule.Next(time.Now())
}

func (ct *CronTrigger) loop(ctx context.Context) {
	for {
		nextRun := ct.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(nextRun))

		ct.logger.Debug("waiting for next scheduled run",
			"spec", ct.spec,
			"next_run", nextRun,
		)

		select {
		case <-ctx.Done():
			timer.Stop()
			ct.logger.Info("cron trigger shutting down", "spec", ct.spec)
			return
		case <-timer.C:
			ct.executeRun(ctx)
		}
	}
}

func (ct *CronTrigger) executeRun(ctx context.Context) {
	ct.logger.Info("starting scheduled run", "spec", ct.spec)

	if err := ct.runnable.Run(ctx); err != nil {
		ct.logger.Warn("scheduled run completed with error", "error", err)
	} else {
		ct.logger.Info("scheduled run completed successfully")
	}
}
