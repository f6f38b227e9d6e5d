// Package metrics exposes bridge counters to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nwkbd/nwkbd/sink"
)

// Config is the metrics section of the serve command.
type Config struct {
	Addr string `help:"Serve Prometheus metrics on this address; empty disables" env:"NWKBD_METRICS_ADDR"`
}

// Metrics holds the bridge collectors on a private registry.
type Metrics struct {
	reg       *prometheus.Registry
	Frames    prometheus.Counter
	Malformed prometheus.Counter
	Events    *prometheus.CounterVec
	Refreshes prometheus.Counter
	Layer     prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Frames: f.NewCounter(prometheus.CounterOpts{
			Name: "nwkbd_frames_total",
			Help: "Scan reports processed.",
		}),
		Malformed: f.NewCounter(prometheus.CounterOpts{
			Name: "nwkbd_malformed_frames_total",
			Help: "Serial lines that did not decode as a scan report.",
		}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nwkbd_events_total",
			Help: "Input events written to the virtual device.",
		}, []string{"kind"}),
		Refreshes: f.NewCounter(prometheus.CounterOpts{
			Name: "nwkbd_refresh_total",
			Help: "Virtual device refresh calls.",
		}),
		Layer: f.NewGauge(prometheus.GaugeOpts{
			Name: "nwkbd_active_layer",
			Help: "Currently active keymap layer.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// WrapSink counts every successful call that goes through s.
func (m *Metrics) WrapSink(s sink.Sink) sink.Sink {
	return &countingSink{next: s, m: m}
}

type countingSink struct {
	next sink.Sink
	m    *Metrics
}

func (c *countingSink) Emit(kind sink.Kind, code evdev.EvCode, value int32) error {
	if err := c.next.Emit(kind, code, value); err != nil {
		return err
	}
	c.m.Events.WithLabelValues(kind.String()).Inc()
	return nil
}

func (c *countingSink) EnsureRegistered() error {
	if err := c.next.EnsureRegistered(); err != nil {
		return err
	}
	c.m.Refreshes.Inc()
	return nil
}

func (c *countingSink) Shutdown() error {
	return c.next.Shutdown()
}

// Server serves /metrics.
type Server struct {
	addr   string
	logger *slog.Logger
	srv    *http.Server
	ln     net.Listener
	ready  chan struct{}
}

func NewServer(addr string, m *Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Server{
		addr:   addr,
		logger: logger,
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, valid after Ready.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// ListenAndServe blocks until Close. It returns nil after a clean close.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	close(s.ready)
	s.logger.Info("Metrics listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	return s.srv.Close()
}
