package cmd

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/config"
	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/stream"
	"github.com/philipp01105/fanlog/watchdog"
)

var (
	pipePriority string
	pipeTag      string
	pipeListen   string
	pipeDrain    time.Duration
)

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Dispatch lines read from stdin",
	Long: `Reads stdin line by line and emits each line at the given priority.
Lines are dispatched from a single task loop; when the configuration has a
[watchdog] section, a stalled loop is reported with its stack.

With --listen, the live log is also served over websocket at /log.`,
	RunE: runPipe,
}

func init() {
	pipeCmd.Flags().StringVarP(&pipePriority, "priority", "p", "info", "priority of each line")
	pipeCmd.Flags().StringVarP(&pipeTag, "tag", "t", "stdin", "tag of each line")
	pipeCmd.Flags().StringVar(&pipeListen, "listen", "", "serve the log stream over websocket on this address")
	pipeCmd.Flags().DurationVar(&pipeDrain, "drain-timeout", 5*time.Second, "how long to wait for queued lines on exit")
	rootCmd.AddCommand(pipeCmd)
}

func runPipe(cmd *cobra.Command, args []string) (err error) {
	priority, err := core.ParsePriority(pipePriority)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		printError("load config", err)
		return err
	}
	diag, err := newDiagnostics()
	if err != nil {
		return err
	}
	defer diag.Sync()
	mp, shutdownMetrics, err := newMeterProvider()
	if err != nil {
		return err
	}

	rt, err := config.Build(cfg, config.BuildOptions{
		Logger:        diag,
		MeterProvider: mp,
		OnNetworkFailure: func(name string, err error) {
			diag.Warn("network destination disabled", zap.String("destination", name), zap.Error(err))
		},
	})
	if err != nil {
		printError("build destinations", err)
		return err
	}
	d := rt.Dispatcher

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := watchdog.NewLoopScheduler(0)
	var wd *watchdog.WatchDog
	if cfg.Watchdog != nil {
		wd = watchdog.New(loop, cfg.Watchdog.Timeout.Duration, d, nil, watchdog.WithLogger(diag))
		wd.Start()
	}

	if pipeListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/log", stream.NewHandler(d, stream.Config{Logger: diag}))
		srv := &http.Server{Addr: pipeListen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				diag.Error("stream server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	go func() {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			line := scanner.Text()
			if !loop.ScheduleWait(ctx, func() { d.EmitTag(priority, pipeTag, line) }) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			diag.Warn("stdin read failed", zap.Error(err))
		}
		// Stop after the lines already queued.
		loop.ScheduleWait(ctx, loop.Stop)
	}()
	go func() {
		<-ctx.Done()
		loop.Stop()
	}()

	loop.Run()
	if wd != nil {
		wd.Stop()
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), pipeDrain)
	defer cancel()
	if err := d.Drain(drainCtx); err != nil {
		diag.Warn("not every queued line was delivered", zap.Error(err))
	}
	return multierr.Combine(rt.Close(), shutdownMetrics(context.Background()))
}
