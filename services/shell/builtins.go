package shell

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"time"

	"nucleus/kernel/klog"

	"golang.org/x/sys/cpu"
)

// Env carries the kernel hooks the builtin commands report on or drive.
// Nil hooks disable the commands that need them.
type Env struct {
	Name    string
	Version string

	Uptime     func() time.Duration
	Stats      func(out io.Writer)
	Breakpoint func()
	Log        *klog.Logger
}

// RegisterBuiltins installs the standard console commands into r.
func RegisterBuiltins(r *Registry, env Env) error {
	b := &builtins{reg: r, env: env}
	for _, spec := range []Spec{
		{Name: "help", Aliases: []string{"?"}, Usage: "help [command]", Desc: "Show available commands.", Cmd: CommandFunc(b.help)},
		{Name: "echo", Usage: "echo [args...]", Desc: "Print arguments.", Cmd: CommandFunc(cmdEcho)},
		{Name: "clear", Aliases: []string{"cls"}, Usage: "clear", Desc: "Clear the terminal.", Cmd: CommandFunc(cmdClear)},
		{Name: "version", Usage: "version", Desc: "Show the kernel version.", Cmd: CommandFunc(b.version)},
		{Name: "uptime", Usage: "uptime", Desc: "Show time since boot.", Cmd: CommandFunc(b.uptime)},
		{Name: "stats", Usage: "stats", Desc: "Show interrupt and scheduler counters.", Cmd: CommandFunc(b.stats)},
		{Name: "cpuid", Usage: "cpuid", Desc: "Show processor features.", Cmd: CommandFunc(cmdCPUID)},
		{Name: "int3", Usage: "int3", Desc: "Raise a breakpoint exception.", Cmd: CommandFunc(b.int3)},
		{Name: "dmesg", Usage: "dmesg [n]", Desc: "Show the last N log entries.", Cmd: CommandFunc(b.dmesg)},
		{Name: "loglevel", Usage: "loglevel [debug|info|warning|error]", Desc: "Show or set the log level.", Cmd: CommandFunc(b.loglevel)},
		{Name: "panic", Usage: "panic", Desc: "Panic the console task (test).", Cmd: CommandFunc(cmdPanic)},
	} {
		if err := r.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

type builtins struct {
	reg *Registry
	env Env
}

func (b *builtins) help(args []string, out io.Writer) error {
	if len(args) == 0 {
		for _, name := range b.reg.Names() {
			spec, _ := b.reg.Resolve(name)
			fmt.Fprintf(out, "%-10s %s\n", spec.Name, spec.Desc)
		}
		return nil
	}
	if len(args) != 1 {
		return errors.New("usage: help [command]")
	}

	spec, ok := b.reg.Resolve(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, args[0])
	}
	if spec.Usage != "" {
		fmt.Fprintf(out, "usage: %s\n", spec.Usage)
	}
	if spec.Desc != "" {
		fmt.Fprintln(out, spec.Desc)
	}
	if len(spec.Aliases) > 0 {
		fmt.Fprintf(out, "aliases: %s\n", strings.Join(spec.Aliases, ", "))
	}
	return nil
}

func cmdEcho(args []string, out io.Writer) error {
	_, err := fmt.Fprintln(out, strings.Join(args, " "))
	return err
}

func cmdClear(_ []string, out io.Writer) error {
	c, ok := out.(interface{ Clear() })
	if !ok {
		return errors.New("clear: output is not a terminal")
	}
	c.Clear()
	return nil
}

func cmdPanic(_ []string, _ io.Writer) error {
	panic("shell panic")
}

func (b *builtins) version(_ []string, out io.Writer) error {
	_, err := fmt.Fprintln(out, strings.TrimSpace(b.env.Name+" "+b.env.Version))
	return err
}

func (b *builtins) uptime(_ []string, out io.Writer) error {
	if b.env.Uptime == nil {
		return errors.New("uptime: no clock")
	}
	_, err := fmt.Fprintf(out, "up %s\n", b.env.Uptime().Truncate(time.Millisecond))
	return err
}

func (b *builtins) stats(_ []string, out io.Writer) error {
	if b.env.Stats == nil {
		return errors.New("stats: not available")
	}
	b.env.Stats(out)
	return nil
}

func (b *builtins) int3(_ []string, out io.Writer) error {
	if b.env.Breakpoint == nil {
		return errors.New("int3: not available")
	}
	b.env.Breakpoint()
	_, err := fmt.Fprintln(out, "resumed after breakpoint")
	return err
}

func (b *builtins) dmesg(args []string, out io.Writer) error {
	if b.env.Log == nil {
		return errors.New("dmesg: no kernel log")
	}
	entries := b.env.Log.History()
	if len(args) >= 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("dmesg: invalid count %q", args[0])
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "(empty)")
		return err
	}
	for _, e := range entries {
		fmt.Fprintln(out, e.String())
	}
	return nil
}

func (b *builtins) loglevel(args []string, out io.Writer) error {
	if b.env.Log == nil {
		return errors.New("loglevel: no kernel log")
	}
	if len(args) == 0 {
		_, err := fmt.Fprintln(out, b.env.Log.Level())
		return err
	}
	level, err := klog.ParseLevel(args[0])
	if err != nil {
		return fmt.Errorf("loglevel: %w", err)
	}
	b.env.Log.SetLevel(level)
	return nil
}

type cpuFeature struct {
	name string
	ok   bool
}

func cpuFeatures() []cpuFeature {
	return []cpuFeature{
		{"sse2", cpu.X86.HasSSE2},
		{"sse3", cpu.X86.HasSSE3},
		{"ssse3", cpu.X86.HasSSSE3},
		{"sse4.1", cpu.X86.HasSSE41},
		{"sse4.2", cpu.X86.HasSSE42},
		{"popcnt", cpu.X86.HasPOPCNT},
		{"aes", cpu.X86.HasAES},
		{"pclmulqdq", cpu.X86.HasPCLMULQDQ},
		{"avx", cpu.X86.HasAVX},
		{"avx2", cpu.X86.HasAVX2},
		{"avx512f", cpu.X86.HasAVX512F},
		{"fma", cpu.X86.HasFMA},
		{"bmi1", cpu.X86.HasBMI1},
		{"bmi2", cpu.X86.HasBMI2},
		{"adx", cpu.X86.HasADX},
		{"erms", cpu.X86.HasERMS},
		{"rdrand", cpu.X86.HasRDRAND},
		{"rdseed", cpu.X86.HasRDSEED},
		{"osxsave", cpu.X86.HasOSXSAVE},
	}
}

func cmdCPUID(_ []string, out io.Writer) error {
	var names []string
	for _, f := range cpuFeatures() {
		if f.ok {
			names = append(names, f.name)
		}
	}
	fmt.Fprintf(out, "arch: %s\n", runtime.GOARCH)
	if len(names) == 0 {
		_, err := fmt.Fprintln(out, "features: none detected")
		return err
	}
	_, err := fmt.Fprintf(out, "features: %s\n", strings.Join(names, " "))
	return err
}
