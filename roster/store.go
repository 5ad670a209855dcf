package roster

import (
	"fmt"
	"slices"
	"sync"
)

// Operation identifies a roster mutation.
type Operation string

const (
	OpSignup     Operation = "signup"
	OpUnregister Operation = "unregister"
)

// Result is the outcome of a roster mutation as reported to an Observer.
type Result string

const (
	ResultOK              Result = "ok"
	ResultNotFound        Result = "not_found"
	ResultAlreadySignedUp Result = "already_signed_up"
	ResultNotSignedUp     Result = "not_signed_up"
	ResultFull            Result = "full"
)

// Observer is notified after every Signup and Unregister call, successful or not.
// participants is the roster size after the call, or 0 for an unknown activity.
//
// ObserveChange runs with the Store's write lock held, so notifications arrive
// in the order the changes were applied. It must not call back into the Store.
type Observer interface {
	ObserveChange(op Operation, activity string, result Result, participants int)
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers an Observer for roster changes.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, o)
	}
}

// WithCapacityEnforcement makes Signup reject new participants once an
// activity has reached max_participants. Without it capacity is informational.
func WithCapacityEnforcement() Option {
	return func(s *Store) {
		s.enforceCapacity = true
	}
}

// Store holds every activity and its roster.
// It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	activities map[string]*Activity // protected by mu
	names      []string             // seed order, immutable after NewStore

	enforceCapacity bool
	observers       []Observer
}

// NewStore creates a Store populated from seed. The seed is copied, later
// changes to it do not affect the Store.
func NewStore(seed []Seed, opts ...Option) (*Store, error) {
	if err := validateSeed(seed); err != nil {
		return nil, err
	}

	s := &Store{
		activities: make(map[string]*Activity, len(seed)),
		names:      make([]string, 0, len(seed)),
	}
	for _, sd := range seed {
		a := sd.Activity.clone()
		s.activities[sd.Name] = &a
		s.names = append(s.names, sd.Name)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Names returns the activity names in seed order.
func (s *Store) Names() []string {
	return slices.Clone(s.names)
}

// Activities returns a copy of every activity keyed by name.
func (s *Store) Activities() map[string]Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Activity, len(s.activities))
	for name, a := range s.activities {
		result[name] = a.clone()
	}
	return result
}

// Activity returns a copy of the named activity.
func (s *Store) Activity(name string) (Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.activities[name]
	if !ok {
		return Activity{}, false
	}
	return a.clone(), true
}

// Signup adds email to the roster of the named activity and returns a
// confirmation message.
func (s *Store) Signup(activity, email string) (string, error) {
	result := s.signup(activity, email)

	switch result {
	case ResultNotFound:
		return "", ErrActivityNotFound
	case ResultAlreadySignedUp:
		return "", ErrAlreadySignedUp
	case ResultFull:
		return "", ErrActivityFull
	}
	return fmt.Sprintf("Signed up %s for %s", email, activity), nil
}

func (s *Store) signup(activity, email string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, count := s.applySignup(activity, email)
	s.notify(OpSignup, activity, result, count)
	return result
}

func (s *Store) applySignup(activity, email string) (Result, int) {
	a, ok := s.activities[activity]
	if !ok {
		return ResultNotFound, 0
	}
	if a.HasParticipant(email) {
		return ResultAlreadySignedUp, len(a.Participants)
	}
	if s.enforceCapacity && a.SeatsLeft() <= 0 {
		return ResultFull, len(a.Participants)
	}
	a.Participants = append(a.Participants, email)
	return ResultOK, len(a.Participants)
}

// Unregister removes email from the roster of the named activity and returns a
// confirmation message.
func (s *Store) Unregister(activity, email string) (string, error) {
	result := s.unregister(activity, email)

	switch result {
	case ResultNotFound:
		return "", ErrActivityNotFound
	case ResultNotSignedUp:
		return "", ErrNotSignedUp
	}
	return fmt.Sprintf("Unregistered %s from %s", email, activity), nil
}

func (s *Store) unregister(activity, email string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, count := s.applyUnregister(activity, email)
	s.notify(OpUnregister, activity, result, count)
	return result
}

func (s *Store) applyUnregister(activity, email string) (Result, int) {
	a, ok := s.activities[activity]
	if !ok {
		return ResultNotFound, 0
	}
	i := slices.Index(a.Participants, email)
	if i < 0 {
		return ResultNotSignedUp, len(a.Participants)
	}
	a.Participants = slices.Delete(a.Participants, i, i+1)
	return ResultOK, len(a.Participants)
}

// notify must be called with mu held.
func (s *Store) notify(op Operation, activity string, result Result, participants int) {
	for _, o := range s.observers {
		o.ObserveChange(op, activity, result, participants)
	}
}
