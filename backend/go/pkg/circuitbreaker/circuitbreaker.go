package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where requests are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and requests are blocked.
	Open
	// HalfOpen allows trial requests through to test whether the upstream recovered.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings configures a Breaker.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that trips the circuit.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive HalfOpen successes that closes it again.
	SuccessThreshold uint32
	// Timeout is how long the circuit stays Open before allowing a trial request.
	Timeout time.Duration
	// OnStateChange, when set, is called after every transition. It runs with
	// the breaker unlocked.
	OnStateChange func(from, to State)
}

// Breaker guards calls to a flaky dependency.
type Breaker struct {
	settings Settings
	now      func() time.Time

	mu                   sync.Mutex
	state                State
	consecutiveFailures  uint32
	consecutiveSuccesses uint32
	openedAt             time.Time
}

// New creates a Breaker. Zero thresholds are treated as 1.
func New(s Settings) *Breaker {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	return &Breaker{settings: s, now: time.Now, state: Closed}
}

// State returns the current state, moving Open to HalfOpen if the timeout elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	from, to := b.refresh()
	state := b.state
	b.mu.Unlock()
	b.notify(from, to)
	return state
}

// Execute runs fn unless the circuit is open. An error returned by fn counts
// as a failure and is passed through unchanged.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	from, to := b.refresh()
	if b.state == Open {
		b.mu.Unlock()
		b.notify(from, to)
		return ErrCircuitOpen
	}
	b.mu.Unlock()
	b.notify(from, to)

	err := fn()

	b.mu.Lock()
	if err != nil {
		from, to = b.onFailure()
	} else {
		from, to = b.onSuccess()
	}
	b.mu.Unlock()
	b.notify(from, to)
	return err
}

// refresh must be called with mu held.
func (b *Breaker) refresh() (State, State) {
	if b.state == Open && b.now().Sub(b.openedAt) > b.settings.Timeout {
		b.consecutiveSuccesses = 0
		return b.setState(HalfOpen)
	}
	return b.state, b.state
}

func (b *Breaker) onSuccess() (State, State) {
	switch b.state {
	case HalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.settings.SuccessThreshold {
			b.consecutiveFailures = 0
			b.consecutiveSuccesses = 0
			return b.setState(Closed)
		}
	case Closed:
		b.consecutiveFailures = 0
	}
	return b.state, b.state
}

func (b *Breaker) onFailure() (State, State) {
	switch b.state {
	case HalfOpen:
		return b.trip()
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.settings.FailureThreshold {
			return b.trip()
		}
	}
	return b.state, b.state
}

func (b *Breaker) trip() (State, State) {
	b.openedAt = b.now()
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
	return b.setState(Open)
}

func (b *Breaker) setState(to State) (State, State) {
	from := b.state
	b.state = to
	return from, to
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(from, to)
	}
}
