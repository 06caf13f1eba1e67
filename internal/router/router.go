package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shaibs3/uniload/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Handler registers its routes on the shared router
type Handler interface {
	RegisterRoutes(router *mux.Router, logger *zap.Logger)
}

type Router struct {
	router    *mux.Router
	limiter   *rate.Limiter
	telemetry *telemetry.Telemetry
	logger    *zap.Logger
	requests  metric.Int64Counter
	latency   metric.Float64Histogram
}

func NewRouter(limiter *rate.Limiter, tel *telemetry.Telemetry, logger *zap.Logger, handlers []Handler) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		limiter:   limiter,
		telemetry: tel,
		logger:    logger.Named("router"),
	}
	r.initMetrics()

	r.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if tel != nil {
		r.router.Handle("/metrics", tel.Handler()).Methods(http.MethodGet)
	}

	api := r.router.NewRoute().Subrouter()
	api.Use(r.rateLimit)
	for _, h := range handlers {
		h.RegisterRoutes(api, r.logger)
	}

	r.router.Use(r.logRequests)
	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// CreateServer wraps the router in an http.Server listening on addr
func (r *Router) CreateServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// loads can run for minutes
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
}

func (r *Router) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.limiter != nil && !r.limiter.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		attrs := metric.WithAttributes(
			attribute.String("route", routeTemplate(req)),
			attribute.String("method", req.Method),
			attribute.String("status", strconv.Itoa(rec.status)),
		)
		r.requests.Add(req.Context(), 1, attrs)
		r.latency.Record(req.Context(), time.Since(start).Seconds(), attrs)
		r.logger.Info("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (r *Router) initMetrics() {
	var meter metric.Meter = noop.NewMeterProvider().Meter("router")
	if r.telemetry != nil {
		meter = r.telemetry.Meter
	}
	var err error
	if r.requests, err = meter.Int64Counter("http_requests",
		metric.WithDescription("HTTP requests served")); err != nil {
		r.logger.Warn("failed to create request counter", zap.Error(err))
		r.requests, _ = noop.NewMeterProvider().Meter("router").Int64Counter("http_requests")
	}
	if r.latency, err = meter.Float64Histogram("http_request_duration",
		metric.WithUnit("s"),
		metric.WithDescription("HTTP request latency")); err != nil {
		r.logger.Warn("failed to create latency histogram", zap.Error(err))
		r.latency, _ = noop.NewMeterProvider().Meter("router").Float64Histogram("http_request_duration")
	}
}

// routeTemplate keeps label cardinality bounded by using the matched pattern
func routeTemplate(req *http.Request) string {
	if route := mux.CurrentRoute(req); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
