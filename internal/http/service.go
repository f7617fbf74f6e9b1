package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	apicontract "github.com/tuanvumaihuynh/catalog-ingest/api-contract"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/config"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/http/apierr"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/http/metric"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/http/middleware"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/http/swagger"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/service"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/db"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg       config.HTTP
	uploadCfg config.Upload
	logger    *slog.Logger
	metrics   *metric.Metrics

	productSvc service.ProductService
	health     db.HealthChecker
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	uploadCfg config.Upload,
	log *slog.Logger,
	productSvc service.ProductService,
	health db.HealthChecker,
) *Service {
	return &Service{
		cfg:        cfg,
		uploadCfg:  uploadCfg,
		logger:     log.With(slog.String("service", "http")),
		metrics:    metric.Default(),
		productSvc: productSvc,
		health:     health,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	h, err := s.Handler(ctx)
	if err != nil {
		return nil, err
	}

	return s.RunWithServer(ctx, h)
}

// Handler validates the embedded API contract and builds the router with every
// middleware and route registered.
func (s *Service) Handler(ctx context.Context) (http.Handler, error) {
	doc, err := apicontract.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("api contract: %w", err)
	}

	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		if err := swagger.Register(r, doc); err != nil {
			return nil, err
		}
	}

	s.RegisterHandlers(r)

	return r, nil
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	// the correlation id and span must exist before a panic is recovered so
	// the 500 is tagged, counted and logged like any other failure
	r.Use(
		middleware.CorrelationID(),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.Logging(s.logger),
		middleware.Recoverer(s.logger),
		middleware.Cors(),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	h := newProductHandler(s.productSvc, s.uploadCfg, s.cfg.DefaultPageSize, s.metrics)

	r.Get("/", s.welcome)
	r.Get("/healthz", s.healthz)
	r.Post("/upload", s.wrap(h.Upload))
	r.Get("/products", s.wrap(h.ListProducts))
	r.Get("/products/search", s.wrap(h.SearchProducts))

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}

// handlerFunc returns the value to encode as a 200 JSON response, or an error
// rendered through apierr.
type handlerFunc func(w http.ResponseWriter, r *http.Request) (any, error)

func (s *Service) wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(w, r)
		if err != nil {
			s.handleResponseError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, res)
	}
}

func (s *Service) welcome(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"message": "Welcome!!"})
}

func (s *Service) healthz(w http.ResponseWriter, r *http.Request) {
	ok, err := s.health.IsHealthy(r.Context())
	if err != nil || !ok {
		s.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WarnContext(r.Context(), "error encoding response",
			slog.Any("error", err))
	}
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}
