package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"propscope/backend-go/internal/models"
)

type SessionOptions struct {
	DefaultTab   string
	IdleTTL      time.Duration
	FetchTimeout time.Duration
}

// Session is one browser's dashboard. Events on a session run one at a time; visualization
// fetches run outside the lock and come back as generation-tagged outcomes.
type Session struct {
	ID string

	mu           sync.Mutex
	view         *View
	viz          Visualizer
	log          logrus.FieldLogger
	lastSeen     time.Time
	fetchTimeout time.Duration
	subs         map[chan PanelView]struct{}
	wg           sync.WaitGroup
}

func NewSession(id string, view *View, viz Visualizer, log logrus.FieldLogger) *Session {
	return &Session{
		ID:       id,
		view:     view,
		viz:      viz,
		log:      log,
		lastSeen: time.Now(),
		subs:     make(map[chan PanelView]struct{}),
	}
}

// Do runs fn with exclusive access to the view. A panel that fn collapses, for example by
// switching tabs or changing filters, is published to subscribers.
func (s *Session) Do(fn func(v *View)) {
	s.do(func(v *View) string {
		fn(v)
		return ""
	})
}

// do runs fn under the lock, then publishes the previously open panel if fn collapsed it and
// the panel fn reports as touched.
func (s *Session) do(fn func(v *View) (touched string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	prev, hadOpen := s.view.panels.OpenID()
	touched := fn(s.view)
	if hadOpen && prev != touched {
		if cur, ok := s.view.panels.OpenID(); !ok || cur != prev {
			s.publish(s.view.Panel(prev))
		}
	}
	if touched != "" {
		s.publish(s.view.Panel(touched))
	}
}

func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	s.Do(func(v *View) { snap = v.Snapshot() })
	return snap
}

// Subscribe streams panel state changes until ctx is done or the returned func is called.
// Slow subscribers miss intermediate states, never the session.
func (s *Session) Subscribe(ctx context.Context) (<-chan PanelView, func()) {
	ch := make(chan PanelView, 8)
	var once sync.Once
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return ch, unsubscribe
}

// publish must be called with s.mu held.
func (s *Session) publish(pv PanelView) {
	for ch := range s.subs {
		select {
		case ch <- pv:
		default:
		}
	}
}

func (s *Session) OpenPanel(ctx context.Context, id string, tf models.Timeframe) (PanelView, error) {
	return s.dispatch(ctx, id, func(v *View) (*Ticket, error) { return v.OpenPanel(id, tf) })
}

func (s *Session) TogglePanel(ctx context.Context, id string) (PanelView, error) {
	return s.dispatch(ctx, id, func(v *View) (*Ticket, error) { return v.TogglePanel(id) })
}

func (s *Session) SelectTimeframe(ctx context.Context, id string, tf models.Timeframe) (PanelView, error) {
	return s.dispatch(ctx, id, func(v *View) (*Ticket, error) { return v.SelectTimeframe(id, tf) })
}

// TogglePanelAsync and SelectTimeframeAsync return the loading state at once; the final state
// reaches subscribers when the fetch completes.
func (s *Session) TogglePanelAsync(id string) (PanelView, error) {
	return s.dispatchAsync(id, func(v *View) (*Ticket, error) { return v.TogglePanel(id) })
}

func (s *Session) SelectTimeframeAsync(id string, tf models.Timeframe) (PanelView, error) {
	return s.dispatchAsync(id, func(v *View) (*Ticket, error) { return v.SelectTimeframe(id, tf) })
}

func (s *Session) ClosePanel(id string) (PanelView, error) {
	var (
		pv  PanelView
		err error
	)
	s.do(func(v *View) string {
		if err = v.ClosePanel(id); err != nil {
			return ""
		}
		pv = v.Panel(id)
		return id
	})
	return pv, err
}

func (s *Session) Panel(id string) (PanelView, error) {
	var (
		pv  PanelView
		err error
	)
	s.Do(func(v *View) {
		if _, err = v.prop(id); err == nil {
			pv = v.Panel(id)
		}
	})
	return pv, err
}

// begin runs a panel event and publishes every panel it changed.
func (s *Session) begin(id string, event func(v *View) (*Ticket, error)) (*Ticket, PanelView, error) {
	var (
		ticket *Ticket
		pv     PanelView
		err    error
	)
	s.do(func(v *View) string {
		if ticket, err = event(v); err != nil {
			return ""
		}
		pv = v.Panel(id)
		return id
	})
	return ticket, pv, err
}

func (s *Session) finish(out Outcome) PanelView {
	var pv PanelView
	s.do(func(v *View) string {
		delivered := v.Deliver(out)
		pv = v.Panel(out.PanelID)
		if !delivered {
			s.log.WithFields(logrus.Fields{
				"session":    s.ID,
				"panel":      out.PanelID,
				"generation": out.Generation,
			}).Debug("stale visualization discarded")
			return ""
		}
		return out.PanelID
	})
	if out.Err != nil {
		s.log.WithError(out.Err).WithField("panel", out.PanelID).Warn("visualization fetch failed")
	}
	return pv
}

func (s *Session) dispatch(ctx context.Context, id string, event func(v *View) (*Ticket, error)) (PanelView, error) {
	ticket, pv, err := s.begin(id, event)
	if err != nil || ticket == nil {
		return pv, err
	}
	return s.finish(Fetch(ctx, s.viz, *ticket)), nil
}

func (s *Session) dispatchAsync(id string, event func(v *View) (*Ticket, error)) (PanelView, error) {
	ticket, pv, err := s.begin(id, event)
	if err != nil || ticket == nil {
		return pv, err
	}
	s.wg.Add(1)
	go func(t Ticket) {
		defer s.wg.Done()
		ctx := context.Background()
		if s.fetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()
		}
		s.finish(Fetch(ctx, s.viz, t))
	}(*ticket)
	return pv, nil
}

// Wait blocks until every async fetch started on this session has been delivered.
func (s *Session) Wait() { s.wg.Wait() }

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return 0
	}
	return now.Sub(s.lastSeen)
}

// SessionStore keeps sessions in memory only. Each session loads its catalog once.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	src      CatalogSource
	viz      Visualizer
	opts     SessionOptions
	log      logrus.FieldLogger
}

func NewSessionStore(src CatalogSource, viz Visualizer, opts SessionOptions, log logrus.FieldLogger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		src:      src,
		viz:      viz,
		opts:     opts,
		log:      log,
	}
}

// Get returns the session for id, creating a fresh one under a new id when id is unknown.
// A failed catalog load creates nothing and returns ErrDataUnavailable.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok && id != "" {
		s.mu.Unlock()
		return sess, false, nil
	}
	s.mu.Unlock()

	catalog, err := LoadCatalog(ctx, s.src)
	if err != nil {
		s.log.WithError(err).Error("catalog load failed")
		return nil, false, err
	}
	sess := NewSession(uuid.NewString(), NewView(catalog, s.opts.DefaultTab), s.viz, s.log)
	sess.fetchTimeout = s.opts.FetchTimeout

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"session": sess.ID, "props": catalog.Len()}).Info("session created")
	return sess, true, nil
}

// Invalidate drops every session, used after a new data upload.
func (s *SessionStore) Invalidate() {
	s.mu.Lock()
	n := len(s.sessions)
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	s.log.WithField("dropped", n).Info("sessions invalidated")
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the configured TTL. Sessions with a live stream
// are never idle.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.idleSince(now) > s.opts.IdleTTL {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps idle sessions every interval until ctx is done. extra runs on the same tick.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration, extra ...func()) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			if n := s.Sweep(now); n > 0 {
				s.log.WithField("expired", n).Debug("idle sessions swept")
			}
			for _, fn := range extra {
				fn()
			}
		}
	}
}
