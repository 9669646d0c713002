// Package app boots the kernel: logging, the interrupt layer, the executor
// and the console tasks.
package app

import (
	"fmt"
	"io"
	"time"

	"nucleus/hal"
	"nucleus/internal/buildinfo"
	"nucleus/kernel"
	"nucleus/kernel/interrupts"
	"nucleus/kernel/keyboard"
	"nucleus/kernel/klog"
	"nucleus/services/clock"
	"nucleus/services/shell"
	"nucleus/services/term"
)

// Name is shown in the console header and the panic screen.
const Name = "nucleus"

// mirrorLevel is the minimum level copied onto a graphical console.
const mirrorLevel = klog.LevelWarning

type Config struct {
	LogLevel klog.Level

	// TickPeriod is the timer interrupt period. Zero selects the PIT
	// power-on rate.
	TickPeriod time.Duration

	ReadyQueue    int
	ScancodeQueue int

	Metrics kernel.Metrics
}

// System is a booted kernel.
type System struct {
	h   hal.HAL
	cfg Config

	log      *klog.Logger
	dispatch *interrupts.Dispatcher
	executor *kernel.Executor
	bridge   *keyboard.Bridge
	screen   *term.Screen
	shell    *shell.Registry
	clock    *clock.Clock
	mirror   *term.LogMirror
}

// Boot brings the kernel up on h and leaves it ready to Run. Boot can
// succeed once per process.
func Boot(h hal.HAL, cfg Config) (*System, error) {
	if cfg.Metrics == nil {
		cfg.Metrics = kernel.NopMetrics{}
	}
	s := &System{h: h, cfg: cfg}

	s.log = klog.New(h.Logger(), cfg.LogLevel, klog.DefaultHistory)
	s.bridge = keyboard.NewBridge(keyboard.Config{
		Capacity: cfg.ScancodeQueue,
		Metrics:  cfg.Metrics,
		Log:      s.log,
	})
	if err := interrupts.Init(h.Machine(), interrupts.Config{Metrics: cfg.Metrics, Log: s.log}); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	s.dispatch = interrupts.Default()

	klog.SetDefault(s.log)
	installPanicHandler(h)
	keyboard.SetDefault(s.bridge)
	interrupts.Enable()

	s.executor = kernel.NewExecutor(h.Machine().CPU(),
		kernel.WithQueueCapacity(cfg.ReadyQueue),
		kernel.WithMetrics(cfg.Metrics),
		kernel.WithLogger(s.log),
	)

	s.clock = clock.New(cfg.TickPeriod)
	s.shell = shell.NewRegistry()
	s.screen = term.New(h.Display(), term.Config{
		Name:    Name,
		Version: buildinfo.Short(),
		Handler: s.shell,
		Serial:  h.Logger(),
	})
	err := shell.RegisterBuiltins(s.shell, shell.Env{
		Name:       Name,
		Version:    buildinfo.Long(),
		Uptime:     s.clock.Uptime,
		Stats:      s.writeStats,
		Breakpoint: s.dispatch.Breakpoint,
		Log:        s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}

	interrupts.SetTimerCallback(s.clock)

	s.executor.Spawn(keyboard.NewDecodeTask(s.bridge, s.screen, s.log))
	s.executor.Spawn(clock.NewRefresher(s.clock, s.screen))
	if s.screen.Graphical() {
		// The serial console already carries every log line.
		s.mirror = term.NewLogMirror(s.screen, mirrorLevel, 0)
		s.log.AddListener(s.mirror)
		s.executor.Spawn(s.mirror)
	}

	s.log.Infof("%s %s booted, %d tasks", Name, buildinfo.Short(), s.executor.Len())
	return s, nil
}

// Run drives the executor. It never returns.
func (s *System) Run() { s.executor.Run() }

// Log returns the kernel logger.
func (s *System) Log() *klog.Logger { return s.log }

// Clock returns the uptime clock.
func (s *System) Clock() *clock.Clock { return s.clock }

// Bridge returns the keyboard event bridge.
func (s *System) Bridge() *keyboard.Bridge { return s.bridge }

func (s *System) writeStats(out io.Writer) {
	fmt.Fprintf(out, "ticks:            %d\n", s.clock.Ticks())
	fmt.Fprintf(out, "tasks:            %d\n", s.executor.Len())
	fmt.Fprintf(out, "scancodes queued: %d\n", s.bridge.Len())
	fmt.Fprintf(out, "scancodes lost:   %d\n", s.bridge.Dropped())
	if s.mirror != nil {
		fmt.Fprintf(out, "log lines lost:   %d\n", s.mirror.Dropped())
	}
}

// New boots the kernel and runs its executor in the background. The
// returned step function is called by the host runner once per frame.
func New(h hal.HAL, cfg Config) func() error {
	s, err := Boot(h, cfg)
	if err != nil {
		return func() error { return err }
	}
	go s.Run()
	return func() error { return nil }
}

// Run boots the kernel and runs it on the calling thread of control. It
// never returns.
func Run(h hal.HAL, cfg Config) {
	s, err := Boot(h, cfg)
	if err != nil {
		h.Logger().WriteLineString(err.Error())
		h.Machine().CPU().HaltForever()
	}
	s.Run()
}
