package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/rosterd/roster"
)

// unknownActivity is the label used for requests naming an activity that does
// not exist, so arbitrary path segments cannot create new series.
const unknownActivity = "unknown"

// RosterMetrics records roster activity. It implements roster.Observer.
type RosterMetrics struct {
	signups      CounterVec
	unregisters  CounterVec
	participants GaugeVec
	capacity     GaugeVec
	known        map[string]bool
}

// NewRosterMetrics registers the roster metrics with reg. Reset must be called
// with the initial activities before the first roster change is observed.
func NewRosterMetrics(reg Registry) (*RosterMetrics, error) {
	signups, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "signup_requests_total",
		Help: "Signup requests by activity and result",
	}, []string{"activity", "result"})
	if err != nil {
		return nil, err
	}
	unregisters, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "unregister_requests_total",
		Help: "Unregister requests by activity and result",
	}, []string{"activity", "result"})
	if err != nil {
		return nil, err
	}
	participants, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "participants",
		Help: "Current number of participants per activity",
	}, []string{"activity"})
	if err != nil {
		return nil, err
	}
	capacity, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "capacity",
		Help: "Maximum participants per activity",
	}, []string{"activity"})
	if err != nil {
		return nil, err
	}

	return &RosterMetrics{
		signups:      signups,
		unregisters:  unregisters,
		participants: participants,
		capacity:     capacity,
		known:        map[string]bool{},
	}, nil
}

// Reset sets the gauges from activities and records which activity names are
// valid label values. It is not safe to call concurrently with ObserveChange.
func (m *RosterMetrics) Reset(activities map[string]roster.Activity) {
	m.known = make(map[string]bool, len(activities))
	for name, a := range activities {
		m.known[name] = true
		m.participants.With(prometheus.Labels{"activity": name}).Set(float64(len(a.Participants)))
		m.capacity.With(prometheus.Labels{"activity": name}).Set(float64(a.MaxParticipants))
	}
}

// ObserveChange implements roster.Observer.
func (m *RosterMetrics) ObserveChange(op roster.Operation, activity string, result roster.Result, participants int) {
	label := activity
	if !m.known[activity] {
		label = unknownActivity
	}

	var counter CounterVec
	switch op {
	case roster.OpSignup:
		counter = m.signups
	case roster.OpUnregister:
		counter = m.unregisters
	default:
		panic(fmt.Sprintf("unknown roster operation %q", op))
	}
	counter.With(prometheus.Labels{"activity": label, "result": string(result)}).Inc()

	if result != roster.ResultNotFound {
		m.participants.With(prometheus.Labels{"activity": label}).Set(float64(participants))
	}
}
