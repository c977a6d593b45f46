package ui

import (
	"sync"
	"time"
)

// ProgressTracker accumulates search counters and derives the file
// throughput. It is safe for concurrent use.
type ProgressTracker struct {
	mu        sync.Mutex
	last      ProgressEvent
	skips     int
	startTime time.Time

	lastFiles     int64
	lastSpeedCalc time.Time
	currentSpeed  float64
	avgSpeed      float64
	peakSpeed     float64
	speedSamples  int
	sparkline     *Sparkline
}

// SpeedStats are files per second.
type SpeedStats struct {
	Current float64
	Avg     float64
	Peak    float64
}

// ProgressStats is a snapshot of a tracker.
type ProgressStats struct {
	ProgressEvent
	Skips   int
	Elapsed time.Duration
	Speed   SpeedStats
}

// speedInterval is the minimum time between throughput samples.
const speedInterval = 250 * time.Millisecond

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		startTime:     now,
		lastSpeedCalc: now,
		sparkline:     NewSparkline(60),
	}
}

// Update records the latest counters.
func (p *ProgressTracker) Update(event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateAt(event, time.Now())
}

func (p *ProgressTracker) updateAt(event ProgressEvent, now time.Time) {
	p.last = event

	elapsed := now.Sub(p.lastSpeedCalc)
	if elapsed < speedInterval {
		return
	}
	files := event.FilesScanned + event.FilesSkipped
	speed := float64(files-p.lastFiles) / elapsed.Seconds()
	p.currentSpeed = speed
	p.speedSamples++
	if p.speedSamples == 1 {
		p.avgSpeed = speed
	} else {
		p.avgSpeed = 0.2*speed + 0.8*p.avgSpeed
	}
	p.peakSpeed = max(p.peakSpeed, speed)
	p.sparkline.Add(speed)

	p.lastFiles = files
	p.lastSpeedCalc = now
}

// AddSkip counts a skipped file.
func (p *ProgressTracker) AddSkip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skips++
}

// Stats returns current statistics snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressStats{
		ProgressEvent: p.last,
		Skips:         p.skips,
		Elapsed:       time.Since(p.startTime),
		Speed: SpeedStats{
			Current: p.currentSpeed,
			Avg:     p.avgSpeed,
			Peak:    p.peakSpeed,
		},
	}
}

// RenderSparkline returns the throughput sparkline.
func (p *ProgressTracker) RenderSparkline(width int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sparkline.Render(width)
}
