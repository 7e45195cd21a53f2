package media

import "sync"

// Sim is an in-memory Environment with a mutable viewport and preference
// state. It implements the preferred Subscribable mechanism and notifies a
// query's subscribers only when that query's match state flips, mirroring
// how real display backends report media changes.
type Sim struct {
	mu    sync.Mutex
	state State
	subs  map[uint64]*simSub
	next  uint64
}

type simSub struct {
	query string
	last  bool
	fn    func(bool)
}

// NewSim creates a simulated environment. The zero viewport matches nothing
// sensible, so callers normally set an initial state first.
func NewSim(initial State) *Sim {
	if initial.ColorScheme == "" {
		initial.ColorScheme = "light"
	}
	return &Sim{
		state: initial,
		subs:  make(map[uint64]*simSub),
	}
}

// Evaluate implements Environment.
func (s *Sim) Evaluate(query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return evaluate(query, s.state)
}

// Subscribe implements Subscribable. The callback fires only on match-state
// changes for this query, never redundantly.
func (s *Sim) Subscribe(query string, fn func(bool)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = &simSub{
		query: query,
		last:  evaluate(query, s.state),
		fn:    fn,
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SetState replaces the environment state and notifies affected
// subscribers.
func (s *Sim) SetState(state State) {
	if state.ColorScheme == "" {
		state.ColorScheme = "light"
	}

	s.mu.Lock()
	s.state = state

	type pending struct {
		fn      func(bool)
		matches bool
	}
	var fire []pending
	for _, sub := range s.subs {
		matches := evaluate(sub.query, s.state)
		if matches != sub.last {
			sub.last = matches
			fire = append(fire, pending{fn: sub.fn, matches: matches})
		}
	}
	s.mu.Unlock()

	for _, p := range fire {
		p.fn(p.matches)
	}
}

// Resize updates only the viewport dimensions.
func (s *Sim) Resize(width, height int) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	state.Width = width
	state.Height = height
	s.SetState(state)
}

// SetColorScheme updates only the color-scheme preference.
func (s *Sim) SetColorScheme(scheme string) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	state.ColorScheme = scheme
	s.SetState(state)
}

// SetReducedMotion updates only the reduced-motion preference.
func (s *Sim) SetReducedMotion(reduced bool) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	state.ReducedMotion = reduced
	s.SetState(state)
}

// LegacySim wraps a Sim but exposes only the legacy listener-registration
// mechanism, for exercising the fallback path.
type LegacySim struct {
	sim *Sim

	mu      sync.Mutex
	cancels map[Listener]func()
}

// NewLegacySim creates a legacy-only view over a fresh Sim.
func NewLegacySim(initial State) *LegacySim {
	return &LegacySim{
		sim:     NewSim(initial),
		cancels: make(map[Listener]func()),
	}
}

// Evaluate implements Environment.
func (l *LegacySim) Evaluate(query string) bool {
	return l.sim.Evaluate(query)
}

// AddListener implements LegacyNotifier.
func (l *LegacySim) AddListener(query string, listener Listener) {
	cancel := l.sim.Subscribe(query, listener.MediaChanged)
	l.mu.Lock()
	l.cancels[listener] = cancel
	l.mu.Unlock()
}

// RemoveListener implements LegacyNotifier.
func (l *LegacySim) RemoveListener(query string, listener Listener) {
	l.mu.Lock()
	cancel := l.cancels[listener]
	delete(l.cancels, listener)
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// SetState forwards to the underlying Sim.
func (l *LegacySim) SetState(state State) {
	l.sim.SetState(state)
}

// Resize forwards to the underlying Sim.
func (l *LegacySim) Resize(width, height int) {
	l.sim.Resize(width, height)
}
