package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination/consoledest"
	"github.com/philipp01105/fanlog/destination/filedest"
	"github.com/philipp01105/fanlog/destination/netdest"
	"github.com/philipp01105/fanlog/formatter"
	"github.com/philipp01105/fanlog/logger"
)

// BuildOptions carries the ambient dependencies of the built components
type BuildOptions struct {
	// Logger receives diagnostics (default: no-op)
	Logger *zap.Logger
	// MeterProvider for destination counters (default: global provider)
	MeterProvider metric.MeterProvider
	// OnNetworkFailure is called once per network destination that fails.
	// The failed destination has already been removed from the dispatcher.
	OnNetworkFailure func(name string, err error)
}

// Runtime is a dispatcher wired to the configured destinations
type Runtime struct {
	Dispatcher *logger.Dispatcher
	File       *filedest.FileDestination
	Console    *consoledest.ConsoleDestination
	Network    []*netdest.NetworkDestination

	restoreStderr func() error
}

// closeDrainTimeout bounds how long Close waits for queued events
const closeDrainTimeout = 5 * time.Second

// Close restores standard error when it was captured, waits up to five
// seconds for queued events, then closes the dispatcher and every
// destination.
func (r *Runtime) Close() error {
	var err error
	if r.restoreStderr != nil {
		err = multierr.Append(err, r.restoreStderr())
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeDrainTimeout)
	err = multierr.Append(err, r.Dispatcher.Drain(ctx))
	cancel()
	err = multierr.Append(err, r.Dispatcher.Close())
	// Failed network destinations are no longer registered.
	for _, nd := range r.Network {
		err = multierr.Append(err, nd.Close())
	}
	return err
}

// Build creates the dispatcher and the destinations enabled in cfg.
// On error everything created so far is closed.
func Build(cfg *Config, opts BuildOptions) (rt *Runtime, err error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	level, err := core.ParsePriority(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("config: level: %w", err)
	}
	if cfg.capturesOwnConsole() {
		return nil, errCaptureConsole
	}

	d := logger.NewBuilder().
		WithDeviceID(cfg.DeviceID).
		WithVersion(cfg.Version, cfg.Build).
		WithLevel(level).
		WithLogger(opts.Logger).
		Build()
	rt = &Runtime{Dispatcher: d}
	defer func() {
		if err != nil {
			err = multierr.Append(err, rt.Close())
			rt = nil
		}
	}()

	if cfg.Console != nil && cfg.Console.Enabled {
		rt.Console = buildConsole(cfg.Console, opts)
		d.Add(rt.Console)
	}

	if cfg.File != nil {
		fd, err := filedest.New(filedest.FileConfig{
			Path:          cfg.File.Path,
			MaxFiles:      cfg.File.MaxFiles,
			MaxLength:     cfg.File.MaxLength,
			QueueSize:     cfg.File.QueueSize,
			Logger:        opts.Logger,
			MeterProvider: opts.MeterProvider,
		})
		if err != nil {
			return rt, err
		}
		rt.File = fd
		d.Add(fd)
		fd.Announce(d)
	}

	targets, err := buildTargets(cfg, opts)
	if err != nil {
		return rt, err
	}
	for _, nt := range targets {
		nd, err := addNetwork(d, nt.target, nt.queueSize, opts)
		if err != nil {
			nt.target.Close()
			return rt, err
		}
		rt.Network = append(rt.Network, nd)
	}

	if len(d.Destinations()) == 0 {
		return rt, ErrNoDestinations
	}

	if cfg.CaptureStderr {
		restore, err := d.CaptureStderr()
		if err != nil {
			return rt, fmt.Errorf("config: capture stderr: %w", err)
		}
		rt.restoreStderr = restore
	}
	return rt, nil
}

func buildConsole(cfg *ConsoleConfig, opts BuildOptions) *consoledest.ConsoleDestination {
	cc := consoledest.ConsoleConfig{
		Writer:        os.Stdout,
		Async:         cfg.Async,
		Logger:        opts.Logger,
		MeterProvider: opts.MeterProvider,
	}
	if cfg.Stream == "stderr" {
		cc.Writer = os.Stderr
	}
	switch cfg.Color {
	case "always":
		cc.Color = consoledest.ColorAlways
	case "never":
		cc.Color = consoledest.ColorNever
	}
	if cfg.JSON {
		cc.Formatter = formatter.NewJSONFormatter(formatter.Config{})
	}
	return consoledest.New(cc)
}

type pendingTarget struct {
	target    netdest.Target
	queueSize int
}

// buildTargets creates the network targets enabled in cfg
func buildTargets(cfg *Config, opts BuildOptions) ([]pendingTarget, error) {
	var targets []pendingTarget
	if cfg.HTTP != nil {
		t, err := netdest.NewHTTPTarget(netdest.HTTPConfig{
			URL:            cfg.HTTP.URL,
			ConnectTimeout: cfg.HTTP.ConnectTimeout.Duration,
			ReadTimeout:    cfg.HTTP.ReadTimeout.Duration,
		})
		if err != nil {
			return nil, fmt.Errorf("config: http.url: %w", err)
		}
		targets = append(targets, pendingTarget{t, cfg.HTTP.QueueSize})
	}
	if cfg.Syslog != nil {
		t := netdest.NewSyslogTarget(netdest.SyslogConfig{
			Host: cfg.Syslog.Host,
			Port: cfg.Syslog.Port,
			Formatter: formatter.NewSyslogFormatter(formatter.SyslogConfig{
				Hostname: cfg.Syslog.Hostname,
				Facility: cfg.Syslog.Facility,
			}),
			Logger: opts.Logger,
		})
		targets = append(targets, pendingTarget{t, cfg.Syslog.QueueSize})
	}
	if cfg.Beats != nil {
		t, err := netdest.NewBeatsTarget(netdest.BeatsConfig{
			Address:          cfg.Beats.Address,
			Timeout:          cfg.Beats.Timeout.Duration,
			CompressionLevel: cfg.Beats.Compression,
		})
		if err != nil {
			for _, pt := range targets {
				pt.target.Close()
			}
			return nil, fmt.Errorf("config: beats.address: %w", err)
		}
		targets = append(targets, pendingTarget{t, cfg.Beats.QueueSize})
	}
	return targets, nil
}

// addNetwork registers a fail-fast destination for target. A failed
// destination unregisters itself and notifies the host, which decides
// whether to add a replacement.
func addNetwork(d *logger.Dispatcher, target netdest.Target, queueSize int, opts BuildOptions) (*netdest.NetworkDestination, error) {
	var nd *netdest.NetworkDestination
	nd, err := netdest.New(netdest.Config{
		Target:    target,
		QueueSize: queueSize,
		Reporter:  d,
		OnFailure: func(m netdest.Message, err error) {
			d.Remove(nd)
			if opts.OnNetworkFailure != nil {
				opts.OnNetworkFailure(target.Name(), err)
			}
		},
		Logger:        opts.Logger,
		MeterProvider: opts.MeterProvider,
	})
	if err != nil {
		return nil, err
	}
	d.Add(nd)
	return nd, nil
}
