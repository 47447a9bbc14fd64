package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/app"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

type Server struct {
	logger    zerolog.Logger
	stations  *app.StationService
	schedules *app.ScheduleService
	programs  *app.ProgramService
	bus       ports.EventBus
	// planner est optionnel (POST /schedules/{oid}/plan).
	planner *app.ProgramPlanner
	// metrics est optionnel (ex: promhttp.HandlerFor sur le registre du serveur).
	metrics http.Handler
}

type Options struct {
	Stations  *app.StationService
	Schedules *app.ScheduleService
	Programs  *app.ProgramService
	Planner   *app.ProgramPlanner
	Bus       ports.EventBus
	Metrics   http.Handler
}

func NewServer(logger zerolog.Logger, opts Options) *Server {
	return &Server{
		logger:    logger,
		stations:  opts.Stations,
		schedules: opts.Schedules,
		programs:  opts.Programs,
		bus:       opts.Bus,
		planner:   opts.Planner,
		metrics:   opts.Metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/openapi.json", s.handleOpenAPI)
		// SSE: pas de timeout de requête.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))
			if s.stations != nil {
				NewStationsHandler(s.stations).Routes(r)
			}
			if s.schedules != nil {
				NewSchedulesHandler(s.schedules, s.programs, s.planner).Routes(r)
			}
			if s.programs != nil {
				NewProgramsHandler(s.programs).Routes(r)
			}
		})
	})

	return r
}
