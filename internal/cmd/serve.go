package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nwkbd/nwkbd/frame"
	"github.com/nwkbd/nwkbd/internal/bridge"
	"github.com/nwkbd/nwkbd/internal/log"
	"github.com/nwkbd/nwkbd/internal/metrics"
	"github.com/nwkbd/nwkbd/keymap"
	"github.com/nwkbd/nwkbd/scan"
	"github.com/nwkbd/nwkbd/sink"
	"github.com/nwkbd/nwkbd/sink/uinputdev"
)

type Serve struct {
	Serial  frame.SerialConfig `embed:"" prefix:"serial."`
	Device  uinputdev.Config   `embed:"" prefix:"device."`
	Metrics metrics.Config     `embed:"" prefix:"metrics."`
	Backend string             `help:"Output backend: one combined uinput device, separate keyboard and mouse devices, or log only" enum:"uinput,split,log" default:"uinput" env:"NWKBD_BACKEND"`
	Keymap  string             `help:"Keymap file (json, yaml or toml); built-in table when empty" env:"NWKBD_KEYMAP"`
	Strict  bool               `help:"Stop on the first undecodable line instead of skipping it" env:"NWKBD_STRICT"`
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := loadKeymap(s.Keymap, logger)
	if err != nil {
		return err
	}
	out, err := openSink(s.Backend, s.Device, table, logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", s.Backend, err)
	}
	port, err := frame.OpenSerial(s.Serial)
	if err != nil {
		_ = out.Shutdown()
		return err
	}
	logger.Info("Starting keypad bridge", "serial", s.Serial.Path, "baud", s.Serial.BaudRate, "backend", s.Backend)
	return s.Start(ctx, table, port, out, logger, rawLogger)
}

// Start runs the bridge from src into out until ctx is done or either side
// fails. out is shut down exactly once before Start returns.
func (s *Serve) Start(ctx context.Context, table *keymap.Table, src io.ReadCloser, out sink.Sink, logger *slog.Logger, rawLogger log.RawLogger) error {
	m := metrics.New()
	guard := sink.NewGuard(m.WrapSink(out))
	defer func() {
		if err := guard.Shutdown(); err != nil {
			logger.Warn("failed to release virtual device", "error", err)
		}
	}()

	proc := scan.New(table, guard, logger)
	b := bridge.New(src, proc, bridge.Options{Strict: s.Strict, Metrics: m}, logger, rawLogger)

	var metricsErrCh chan error
	if s.Metrics.Addr != "" {
		metricsSrv := metrics.NewServer(s.Metrics.Addr, m, logger)
		metricsErrCh = make(chan error, 1)
		go func() {
			metricsErrCh <- metricsSrv.ListenAndServe()
		}()
		select {
		case err := <-metricsErrCh:
			_ = b.Close()
			return fmt.Errorf("metrics server: %w", err)
		case <-metricsSrv.Ready():
		}
		defer func() { _ = metricsSrv.Close() }()
	}

	bridgeErrCh := make(chan error, 1)
	go func() {
		bridgeErrCh <- b.Serve()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		_ = b.Close()
		_ = guard.Shutdown()
		<-bridgeErrCh
		return nil
	case err := <-bridgeErrCh:
		_ = b.Close()
		return err
	case err := <-metricsErrCh:
		_ = b.Close()
		_ = guard.Shutdown()
		<-bridgeErrCh
		return fmt.Errorf("metrics server stopped: %w", err)
	}
}
