// Package report summarizes the state of every roster.
//
// A Reporter is run on demand by the /report endpoint and on a cron schedule
// by the server. Scheduled runs log the summary and, when a remote write
// endpoint is configured, push it as metrics.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nomis52/rosterd/metrics"
	"github.com/nomis52/rosterd/roster"
)

// Source provides the rosters to summarize. *roster.Store implements it.
type Source interface {
	Names() []string
	Activities() map[string]roster.Activity
}

// Pusher sends samples to a metrics backend. *metrics.Pusher implements it.
type Pusher interface {
	Push(ctx context.Context, samples ...metrics.Sample) error
}

// ActivitySummary describes one roster.
type ActivitySummary struct {
	Name         string  `json:"name"`
	Participants int     `json:"participants"`
	Capacity     int     `json:"capacity"`
	SeatsLeft    int     `json:"seats_left"`
	FillRatio    float64 `json:"fill_ratio"`
	OverCapacity bool    `json:"over_capacity"`
}

// Summary describes every roster at a point in time.
type Summary struct {
	GeneratedAt       time.Time         `json:"generated_at"`
	Activities        []ActivitySummary `json:"activities"`
	TotalParticipants int               `json:"total_participants"`
	TotalCapacity     int               `json:"total_capacity"`
}

// Full returns the activities that have no seats left.
func (s Summary) Full() []string {
	var names []string
	for _, a := range s.Activities {
		if a.SeatsLeft <= 0 {
			names = append(names, a.Name)
		}
	}
	return names
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithPusher makes Run push the summary as metrics.
func WithPusher(p Pusher) Option {
	return func(r *Reporter) {
		r.pusher = p
	}
}

// Reporter builds roster summaries.
type Reporter struct {
	source Source
	logger *slog.Logger
	pusher Pusher
	now    func() time.Time
}

// New creates a Reporter reading from source.
func New(source Source, logger *slog.Logger, opts ...Option) *Reporter {
	r := &Reporter{
		source: source,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summarize returns the current state of every roster in seed order.
func (r *Reporter) Summarize() Summary {
	activities := r.source.Activities()
	summary := Summary{
		GeneratedAt: r.now(),
		Activities:  make([]ActivitySummary, 0, len(activities)),
	}

	for _, name := range r.source.Names() {
		a, ok := activities[name]
		if !ok {
			continue
		}
		as := ActivitySummary{
			Name:         name,
			Participants: len(a.Participants),
			Capacity:     a.MaxParticipants,
			SeatsLeft:    a.SeatsLeft(),
			OverCapacity: a.SeatsLeft() < 0,
		}
		if a.MaxParticipants > 0 {
			as.FillRatio = float64(as.Participants) / float64(a.MaxParticipants)
		}
		summary.Activities = append(summary.Activities, as)
		summary.TotalParticipants += as.Participants
		summary.TotalCapacity += as.Capacity
	}
	return summary
}

// Run builds a summary, logs it and pushes it if a Pusher is configured.
func (r *Reporter) Run(ctx context.Context) error {
	summary := r.Summarize()

	r.logger.Info("roster report",
		"activities", len(summary.Activities),
		"total_participants", summary.TotalParticipants,
		"total_capacity", summary.TotalCapacity,
		"full", summary.Full(),
	)
	for _, a := range summary.Activities {
		if a.OverCapacity {
			r.logger.Warn("activity over capacity",
				"activity", a.Name,
				"participants", a.Participants,
				"capacity", a.Capacity,
			)
		}
	}

	if r.pusher == nil {
		return nil
	}
	if err := r.pusher.Push(ctx, Samples(summary)...); err != nil {
		return fmt.Errorf("pushing roster report: %w", err)
	}
	r.logger.Debug("roster report pushed", "series", len(summary.Activities)*3)
	return nil
}

// Samples converts a summary into metric samples stamped with its
// generation time.
func Samples(s Summary) []metrics.Sample {
	samples := make([]metrics.Sample, 0, len(s.Activities)*3)
	for _, a := range s.Activities {
		labels := map[string]string{"activity": a.Name}
		samples = append(samples,
			metrics.Sample{Name: "roster_participants", Value: float64(a.Participants), Labels: labels, Timestamp: s.GeneratedAt},
			metrics.Sample{Name: "roster_capacity", Value: float64(a.Capacity), Labels: labels, Timestamp: s.GeneratedAt},
			metrics.Sample{Name: "roster_fill_ratio", Value: a.FillRatio, Labels: labels, Timestamp: s.GeneratedAt},
		)
	}
	return samples
}
