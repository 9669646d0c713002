//go:build !baremetal

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"nucleus/app"
	"nucleus/hal"
	"nucleus/kernel"
	"nucleus/kernel/klog"
	obs "nucleus/observability/prometheus"

	prom "github.com/prometheus/client_golang/prometheus"
)

func main() {
	var cfg hal.HeadlessConfig
	var (
		logLevel      string
		metricsAddr   string
		readyQueue    int
		scancodeQueue int
	)
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 100, "Timer interrupt rate.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&cfg.Type, "type", "", "Text typed on the keyboard at boot.")
	flag.StringVar(&logLevel, "log-level", "info", "Minimum log level: debug, info, warning, error.")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (empty = off).")
	flag.IntVar(&readyQueue, "ready-queue", kernel.DefaultQueueCapacity, "Executor ready queue capacity.")
	flag.IntVar(&scancodeQueue, "scancode-queue", 0, "Scan code queue capacity (0 = default).")
	flag.Parse()

	level, err := klog.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.Hz <= 0 {
		fmt.Fprintf(os.Stderr, "invalid -hz: %d\n", cfg.Hz)
		os.Exit(2)
	}

	appCfg := app.Config{
		LogLevel:      level,
		TickPeriod:    time.Second / time.Duration(cfg.Hz),
		ReadyQueue:    readyQueue,
		ScancodeQueue: scancodeQueue,
	}

	if metricsAddr != "" {
		reg := prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter("nucleus", reg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		srv, err := obs.Listen(metricsAddr, reg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		fmt.Fprintf(os.Stderr, "metrics on http://%s/metrics\n", srv.Addr())
		appCfg.Metrics = exporter
	}

	newApp := func(h hal.HAL) func() error { return app.New(h, appCfg) }

	if cfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		cfg.Input = os.Stdin
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(newApp, cfg.Hz); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
