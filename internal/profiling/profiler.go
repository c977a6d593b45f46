// Package profiling provides CPU, memory, goroutine, and trace profiling
// for a single CLI run.
package profiling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the profile files to write. Empty paths are skipped.
type Options struct {
	CPU       string
	Mem       string
	Trace     string
	Goroutine string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Mem != "" || o.Trace != "" || o.Goroutine != ""
}

// Profiler manages performance profiling for the application.
type Profiler struct {
	cpuFile   *os.File
	traceFile *os.File
}

// NewProfiler creates a new Profiler instance.
func NewProfiler() *Profiler {
	return &Profiler{}
}

// Start begins the CPU profile and trace named in opts. The returned stop
// function ends them and then writes the heap and goroutine snapshots; it
// must be called once the run is over.
func Start(opts Options, logger *slog.Logger) (stop func() error, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := NewProfiler()

	var cleanups []func()
	undo := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if opts.CPU != "" {
		c, err := p.StartCPU(opts.CPU)
		if err != nil {
			return nil, err
		}
		cleanups = append(cleanups, c)
		logger.Debug("cpu profiling started", slog.String("path", opts.CPU))
	}
	if opts.Trace != "" {
		c, err := p.StartTrace(opts.Trace)
		if err != nil {
			undo()
			return nil, err
		}
		cleanups = append(cleanups, c)
		logger.Debug("tracing started", slog.String("path", opts.Trace))
	}

	return func() error {
		undo()

		// Snapshots are taken after the run, so they show what it left behind.
		var errs []error
		if opts.Goroutine != "" {
			errs = append(errs, p.WriteGoroutine(opts.Goroutine))
		}
		if opts.Mem != "" {
			errs = append(errs, p.WriteHeap(opts.Mem))
			LogMemStats(logger)
		}
		return errors.Join(errs...)
	}, nil
}

// StartCPU starts CPU profiling to the specified file.
// Returns a cleanup function that must be called to stop profiling and flush data.
func (p *Profiler) StartCPU(path string) (cleanup func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create CPU profile file: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}

	p.cpuFile = f

	return func() {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
	}, nil
}

// WriteHeap writes a heap profile to the specified file.
func (p *Profiler) WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Force garbage collection before profiling for accurate results
	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}

	return nil
}

// StartTrace starts execution tracing to the specified file.
// Returns a cleanup function that must be called to stop tracing.
func (p *Profiler) StartTrace(path string) (cleanup func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start trace: %w", err)
	}

	p.traceFile = f

	return func() {
		trace.Stop()
		_ = p.traceFile.Close()
		p.traceFile = nil
	}, nil
}

// WriteGoroutine writes a goroutine profile to the specified file. Scan
// goroutines still listed after a search has ended are leaks.
func (p *Profiler) WriteGoroutine(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create goroutine profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := pprof.Lookup("goroutine").WriteTo(f, 1); err != nil {
		return fmt.Errorf("failed to write goroutine profile: %w", err)
	}

	return nil
}

// MemStats returns current memory statistics.
func MemStats() runtime.MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m
}

// LogMemStats logs a memory summary at debug level.
func LogMemStats(logger *slog.Logger) {
	m := MemStats()
	logger.Debug("memory stats",
		slog.String("heap_alloc", FormatBytes(m.HeapAlloc)),
		slog.String("total_alloc", FormatBytes(m.TotalAlloc)),
		slog.String("sys", FormatBytes(m.Sys)),
		slog.Uint64("num_gc", uint64(m.NumGC)),
		slog.Int("goroutines", runtime.NumGoroutine()))
}

// FormatBytes formats bytes into human-readable form.
func FormatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
