package logout

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/logging"
	"github.com/cmmoran/gatecp/internal/spec"
)

type State int

const (
	ClearLocal State = iota
	ProbeNext
	RedirectToService
	SkipService
	Done
)

func (s State) String() string {
	switch s {
	case ClearLocal:
		return "clear_local"
	case ProbeNext:
		return "probe_next"
	case RedirectToService:
		return "redirect_to_service"
	case SkipService:
		return "skip_service"
	case Done:
		return "done"
	}
	return "unknown"
}

// Target is one sidecar-protected service the cascade signs out of.
type Target struct {
	ID  string
	URL string
}

// Targets is the work list: proxy-auth entries in descriptor order.
func Targets(d *descriptor.Descriptor) []Target {
	var out []Target
	for _, s := range d.Services {
		if s.AuthType == spec.AuthProxy {
			out = append(out, Target{ID: s.ID, URL: s.URL})
		}
	}
	return out
}

type Config struct {
	PortalURL   string
	IdentityURL string
	Realm       string
	ClientID    string
	// SkipProbes sends the browser straight to end-session.
	SkipProbes bool
}

type HopKind int

const (
	HopService HopKind = iota
	HopEndSession
)

// Hop is the single top-level navigation produced by one cascade step.
type Hop struct {
	Kind     HopKind
	Location string
	// Target is set for HopService.
	Target  Target
	Skipped []Target
	// States lists every state entered while computing this hop.
	States []State
}

type Option func(*Machine)

// WithTransitionHook is called on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(m *Machine) { m.onTransition = fn }
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// Machine computes cascade hops. It holds no per-user state: the position in
// the work list travels in the continuation URL, so one Machine serves every
// request concurrently.
type Machine struct {
	cfg          Config
	targets      []Target
	prober       Prober
	now          func() time.Time
	onTransition func(from, to State)
	log          *log.Entry
}

func New(cfg Config, targets []Target, prober Prober, opts ...Option) *Machine {
	m := &Machine{
		cfg:     cfg,
		targets: targets,
		prober:  prober,
		now:     time.Now,
		log:     logging.For("logout"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// startIndex resumes after lastID. An unknown id restarts the list.
func (m *Machine) startIndex(lastID string) int {
	if lastID == "" {
		m.log.WithField("event", "logout_start").Info("logout requested")
		return 0
	}
	m.log.WithFields(log.Fields{"event": "logout_continue", "last_service_id": lastID}).Info("continuing logout")
	for i, t := range m.targets {
		if t.ID == lastID {
			return i + 1
		}
	}
	m.log.WithFields(log.Fields{"event": "logout_unknown_service_id", "service_id": lastID}).
		Warn("unknown serviceId; restarting logout from the first service")
	return 0
}

// Next runs the machine from ClearLocal until a navigation is due. lastID is
// the service the browser just signed out of, or empty on the first hop.
// idToken is never logged.
func (m *Machine) Next(ctx context.Context, lastID, idToken string) Hop {
	idx := m.startIndex(lastID)
	if m.cfg.SkipProbes && idx < len(m.targets) {
		m.log.WithField("event", "logout_missing_traefik_url").
			Warn("internal proxy URL not set in production; skipping service probes")
	}

	hop := Hop{States: []State{ClearLocal}}
	state := ClearLocal
	var current Target
	for {
		var next State
		switch state {
		case ClearLocal:
			next = ProbeNext
		case ProbeNext:
			if m.cfg.SkipProbes || idx >= len(m.targets) {
				next = Done
				break
			}
			current = m.targets[idx]
			res := m.prober.Probe(ctx, current.URL)
			fields := log.Fields{"service_id": current.ID, "service_url": current.URL, "index": idx}
			if res.Reachable() {
				m.log.WithFields(fields).WithField("event", "logout_service_reachable").Info("service reachable")
				next = RedirectToService
			} else {
				m.log.WithFields(fields).WithFields(log.Fields{"event": "logout_service_unreachable", "result": res.String()}).
					Warn("service unreachable, skipping")
				hop.Skipped = append(hop.Skipped, current)
				next = SkipService
			}
		case SkipService:
			idx++
			next = ProbeNext
		case RedirectToService:
			hop.Kind = HopService
			hop.Target = current
			rd := ContinueURL(m.cfg.PortalURL, current.ID)
			hop.Location = SignOutURL(current.URL, rd)
			m.log.WithFields(log.Fields{
				"event":           "oauth2_proxy_logout_redirect",
				"next_service_id": current.ID,
				"rd_url":          rd,
			}).Info("redirecting to sidecar sign_out")
			return hop
		case Done:
			m.finish(&hop, idToken)
			return hop
		}
		m.transition(state, next)
		hop.States = append(hop.States, next)
		state = next
	}
}

func (m *Machine) finish(hop *Hop, idToken string) {
	switch {
	case len(m.targets) == 0:
		m.log.WithField("event", "logout_no_oauth2proxy_services").Info("no sidecar services; redirecting to end-session")
	case len(hop.Skipped) > 0:
		m.log.WithFields(log.Fields{"event": "logout_all_services_unreachable", "skipped_count": len(hop.Skipped)}).
			Warn("all remaining sidecar services are unreachable")
		fallthrough
	default:
		m.log.WithField("event", "logout_services_complete").Info("all sidecar services processed; redirecting to end-session")
	}
	hop.Kind = HopEndSession
	hop.Location = EndSessionURL(m.cfg.IdentityURL, m.cfg.Realm, m.cfg.PortalURL, m.cfg.ClientID, idToken, m.now())
	m.log.WithFields(log.Fields{
		"event":        "keycloak_logout_redirect",
		"has_id_token": idToken != "",
		"realm":        m.cfg.Realm,
	}).Info("redirecting to identity provider end-session")
}

func (m *Machine) transition(from, to State) {
	if m.onTransition != nil {
		m.onTransition(from, to)
	}
}

// Simulate drives the whole cascade the way a browser would, following each
// service hop back to the coordinator. It returns every navigation in order;
// the last one is always the end-session hop.
func (m *Machine) Simulate(ctx context.Context, idToken string) []Hop {
	var hops []Hop
	last := ""
	for range len(m.targets) + 1 {
		hop := m.Next(ctx, last, idToken)
		hops = append(hops, hop)
		if hop.Kind == HopEndSession {
			return hops
		}
		last = hop.Target.ID
	}
	return hops
}
