package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/kilianp07/vppsim/core/dispatch"
	"github.com/kilianp07/vppsim/core/frequency"
	"github.com/kilianp07/vppsim/core/market"
	"github.com/kilianp07/vppsim/core/store"
	"github.com/kilianp07/vppsim/infra/logger"
)

// Deps are the components exposed by the server. Store is required; routes
// for the others are mounted only when set.
type Deps struct {
	Store     *store.Store
	Frequency *frequency.Monitor
	Dispatch  *dispatch.Controller
	Bids      *market.BidBook
	Prices    market.PriceHistory
}

// Server serves the REST API and the WebSocket stream.
type Server struct {
	cfg      Config
	deps     Deps
	hub      *Hub
	router   chi.Router
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewServer builds the router.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Store == nil {
		return nil, errors.New("api: store is required")
	}
	s := &Server{
		cfg:  cfg,
		deps: deps,
		hub:  NewHub(cfg.SendBuffer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: logger.New("api"),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWS)
	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/alerts", s.handleAlerts)
		r.Delete("/alerts", s.handleClearAlerts)
		if s.deps.Frequency != nil {
			r.Get("/frequency", s.handleFrequency)
		}
		if s.deps.Dispatch != nil {
			r.Get("/dispatch/assets", s.handleAssets)
			r.Get("/dispatch/commands", s.handleCommands)
			r.Post("/dispatch/commands", s.handleSubmitCommand)
		}
		if s.deps.Bids != nil {
			r.Get("/market/bids", s.handleBids)
			r.Post("/market/bids", s.handleSubmitBid)
		}
		if s.deps.Prices != nil {
			r.Get("/market/prices", s.handlePrices)
		}
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debugw("http request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Notifier returns a notifier that shows alerts as toasts.
func (s *Server) Notifier() HubNotifier { return HubNotifier{Hub: s.hub} }

// Start runs the hub and the change forwarders without listening. It is used
// by Run and by callers mounting Handler on their own server.
func (s *Server) Start(ctx context.Context) <-chan struct{} {
	go s.hub.Run(ctx)
	return s.forward(ctx)
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	forwarded := s.Start(ctx)
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownTimeoutMS)*time.Millisecond)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("serving api on %s", s.cfg.Addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-forwarded
	return nil
}

// forward broadcasts store and dispatch changes until ctx is cancelled.
func (s *Server) forward(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	changes := s.deps.Store.Subscribe()
	var events <-chan dispatch.Event
	if s.deps.Dispatch != nil {
		events = s.deps.Dispatch.Subscribe()
	}
	go func() {
		defer close(done)
		defer s.deps.Store.Unsubscribe(changes)
		if events != nil {
			defer s.deps.Dispatch.Unsubscribe(events)
		}
		for {
			var err error
			select {
			case <-ctx.Done():
				return
			case c, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				err = s.broadcastChange(c)
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				err = s.hub.Broadcast(TypeDispatch, ev.Command)
			}
			if errors.Is(err, ErrHubClosed) {
				return
			}
			if err != nil {
				s.log.Warnf("broadcast: %v", err)
			}
		}
	}()
	return done
}

func (s *Server) broadcastChange(c store.Change) error {
	switch c.Kind {
	case store.ChangeSnapshot:
		return s.hub.Broadcast(TypeSnapshot, c.Snapshot)
	case store.ChangeAlertAdded:
		if c.Alert != nil {
			return s.hub.Broadcast(TypeAlert, c.Alert)
		}
	case store.ChangeAlertsCleared:
		return s.hub.Broadcast(TypeAlertsCleared, nil)
	}
	return nil
}
