package report

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/rosterd/metrics"
	"github.com/nomis52/rosterd/roster"
)

type mockPusher struct {
	samples []metrics.Sample
	err     error
}

func (m *mockPusher) Push(ctx context.Context, samples ...metrics.Sample) error {
	m.samples = append(m.samples, samples...)
	return m.err
}

func newTestStore(t *testing.T) *roster.Store {
	t.Helper()
	store, err := roster.NewStore([]roster.Seed{
		{Name: "Chess Club", Activity: roster.Activity{MaxParticipants: 4, Participants: []string{"a@example.com"}}},
		{Name: "Tiny", Activity: roster.Activity{MaxParticipants: 1, Participants: []string{"b@example.com"}}},
	})
	require.NoError(t, err)
	return store
}

func TestReporter_Summarize(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Signup("Tiny", "c@example.com")
	require.NoError(t, err)

	fixed := time.Date(2024, 9, 2, 7, 0, 0, 0, time.UTC)
	r := New(store, slog.Default())
	r.now = func() time.Time { return fixed }

	s := r.Summarize()
	assert.Equal(t, fixed, s.GeneratedAt)
	assert.Equal(t, 3, s.TotalParticipants)
	assert.Equal(t, 5, s.TotalCapacity)
	require.Len(t, s.Activities, 2)

	assert.Equal(t, ActivitySummary{
		Name:         "Chess Club",
		Participants: 1,
		Capacity:     4,
		SeatsLeft:    3,
		FillRatio:    0.25,
	}, s.Activities[0])

	tiny := s.Activities[1]
	assert.Equal(t, "Tiny", tiny.Name)
	assert.Equal(t, -1, tiny.SeatsLeft)
	assert.True(t, tiny.OverCapacity)
	assert.Equal(t, 2.0, tiny.FillRatio)

	assert.Equal(t, []string{"Tiny"}, s.Full())
}

func TestReporter_Run_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := New(newTestStore(t), logger)
	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, buf.String(), "roster report")
	assert.Contains(t, buf.String(), "total_participants=2")
}

func TestReporter_Run_Pushes(t *testing.T) {
	pusher := &mockPusher{}
	r := New(newTestStore(t), slog.Default(), WithPusher(pusher))

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, pusher.samples, 6)
	assert.Equal(t, "roster_participants", pusher.samples[0].Name)
	assert.Equal(t, "Chess Club", pusher.samples[0].Labels["activity"])
	assert.Equal(t, 1.0, pusher.samples[0].Value)
	assert.Equal(t, "roster_capacity", pusher.samples[1].Name)
	assert.Equal(t, 4.0, pusher.samples[1].Value)
	assert.Equal(t, "roster_fill_ratio", pusher.samples[2].Name)
	assert.Equal(t, 0.25, pusher.samples[2].Value)
}

func TestReporter_Run_PushError(t *testing.T) {
	pusher := &mockPusher{err: errors.New("connection refused")}
	r := New(newTestStore(t), slog.Default(), WithPusher(pusher))

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
