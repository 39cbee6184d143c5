package services

import (
	"context"
	"log"
	"time"

	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/routing"
)

// PositionSource supplies the traveler's latest position fix. ok is false
// when no fix is available yet.
type PositionSource func(ctx context.Context) (geo.Point, bool)

// DeviationMonitor drives the timerless deviation tracker on a fixed cadence.
// The tracker itself only evaluates when fed a position; this loop is the
// feeder for deployments without push-based position delivery.
type DeviationMonitor struct {
	tracker  *routing.Tracker
	source   PositionSource
	interval time.Duration

	stopChan chan struct{}
	running  bool
}

// NewDeviationMonitor creates a monitor polling source every interval. An
// interval <= 0 defaults to 5 seconds.
func NewDeviationMonitor(tracker *routing.Tracker, source PositionSource, interval time.Duration) *DeviationMonitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &DeviationMonitor{
		tracker:  tracker,
		source:   source,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop in a background goroutine
func (m *DeviationMonitor) Start(ctx context.Context) error {
	if m.running {
		return nil
	}

	m.running = true
	log.Printf("Starting deviation monitor, polling every %v", m.interval)

	go m.pollLoop(ctx)
	return nil
}

// Stop gracefully stops the monitor
func (m *DeviationMonitor) Stop() {
	if !m.running {
		return
	}

	m.running = false
	close(m.stopChan)
	log.Printf("Stopped deviation monitor")
}

// IsRunning returns whether the monitor loop is active
func (m *DeviationMonitor) IsRunning() bool {
	return m.running
}

func (m *DeviationMonitor) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Deviation monitor stopping due to context cancellation")
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.evaluateOnce(ctx)
		}
	}
}

// evaluateOnce feeds one position fix to the tracker. Off-route transitions
// are delivered through the tracker's sink, not here.
func (m *DeviationMonitor) evaluateOnce(ctx context.Context) {
	if !m.tracker.HasRoute() {
		return
	}

	position, ok := m.source(ctx)
	if !ok {
		return
	}

	state := m.tracker.Evaluate(position)
	if state.OffRoute {
		log.Printf("Traveler off route: %.1fm from route (threshold %.1fm)",
			state.DistanceMeters, state.ThresholdMeters)
	}
}
