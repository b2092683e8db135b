package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/cmmoran/gatecp/internal/authz"
	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/logging"
	"github.com/cmmoran/gatecp/internal/logout"
)

const (
	CookieAccessToken = "access_token"
	CookieIDToken     = "id_token"
	CookieOAuthState  = "oauth_state"

	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

type Option func(*Server)

// WithProber replaces the HTTP prober.
func WithProber(p logout.Prober) Option {
	return func(s *Server) { s.prober = p }
}

type Server struct {
	cfg      *Config
	desc     *descriptor.Descriptor
	prober   logout.Prober
	machine  *logout.Machine
	client   *http.Client
	oauth    *oauth2.Config
	verifier *Verifier
	metrics  *Metrics
	router   chi.Router
	log      *log.Entry
	ready    atomic.Bool
}

func NewServer(cfg *Config, desc *descriptor.Descriptor, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		desc:    desc,
		metrics: NewMetrics(),
		log:     logging.For("portal"),
		client: &http.Client{
			Timeout: cfg.HTTPRequestTimeout,
			Transport: &http.Transport{
				Proxy:       http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{Timeout: cfg.HTTPConnectTimeout}).DialContext,
			},
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.oauth = oauthConfig(cfg)
	s.verifier = NewVerifier(cfg.JWKSURL(), cfg.IssuerURL(), cfg.ClientID, cfg.JWKSCacheTTL, s.client)
	if s.prober == nil {
		s.prober = logout.NewHTTPProber(cfg.ProbeConnectTimeout, cfg.ProbeRequestTimeout, cfg.TraefikInternalURL)
	}
	s.machine = logout.New(logout.Config{
		PortalURL:   cfg.PortalURL,
		IdentityURL: cfg.KeycloakURL,
		Realm:       cfg.Realm,
		ClientID:    cfg.ClientID,
		SkipProbes:  cfg.SkipProbes(),
	}, logout.Targets(desc), s.prober, logout.WithTransitionHook(s.metrics.transition))
	s.routes()
	s.ready.Store(true)
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/descriptor", s.handleDescriptor)
		r.Get("/services", s.handleServices)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", s.handleLogin)
		r.Get("/callback", s.handleCallback)
		r.Get("/logout", s.handleLogout)
		r.Post("/logout", s.handleLogout)
		r.Get("/logout/complete", s.handleLogoutComplete)
	})
	s.router = r
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		total, protected, public := s.desc.Counts()
		s.log.WithFields(log.Fields{
			"event":       "portal_listening",
			"addr":        srv.Addr,
			"services":    total,
			"protected":   protected,
			"public":      public,
			"skip_probes": s.cfg.SkipProbes(),
		}).Info("portal listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.WithField("event", "portal_stopped").Info("portal stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		s.log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleDescriptor(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.desc)
}

// handleServices lists the entries the caller's realm roles grant.
// Visibility is a UI concern only; each sidecar still enforces access on its own.
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	claims, err := s.session(r)
	if err != nil {
		s.log.WithError(err).WithField("event", "session_rejected").Debug("unauthenticated services request")
		writeJSONStatus(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	writeJSON(w, authz.Filter(claims.Roles(), s.desc.Services))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var idToken string
	if c, err := r.Cookie(CookieIDToken); err == nil {
		idToken = c.Value
	}
	hop := s.machine.Next(r.Context(), r.URL.Query().Get("serviceId"), idToken)
	s.metrics.observeHop(hop)

	// The portal's own session ends on the first hop; every hop repeats it.
	s.clearCookie(w, CookieAccessToken, "/")
	s.clearCookie(w, CookieOAuthState, "/auth")
	if hop.Kind == logout.HopEndSession {
		s.clearCookie(w, CookieIDToken, "/")
		s.log.WithField("event", "portal_id_token_cleared").Info("cleared id_token cookie")
	}
	http.Redirect(w, r, hop.Location, http.StatusSeeOther)
}

func (s *Server) handleLogoutComplete(w http.ResponseWriter, r *http.Request) {
	s.log.WithFields(log.Fields{"event": "logout_complete", "redirect_to": "/"}).Info("logout complete")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) clearCookie(w http.ResponseWriter, name, path string) {
	s.setCookie(w, name, "", path, -1)
}

func (s *Server) setCookie(w http.ResponseWriter, name, value, path string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   s.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
