package dashboard

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// Holder owns the current snapshot. All reads go through Current, all
// writes through Refresh or Reset; nothing else holds a reference that
// outlives a call.
//
// Refreshes carry a monotonic generation: a refresh that settles after a
// newer one was issued gets dropped instead of clobbering newer state, so
// two overlapping refreshes can never leave the dashboard time-traveling.
type Holder struct {
	aggregator     *Aggregator
	metricsManager *metrics.Manager

	issued uint64 // atomically incremented, latest issued generation

	mu       sync.Mutex
	snapshot Snapshot
	applied  uint64 // generation of the snapshot currently held
}

func NewHolder(aggregator *Aggregator, metricsManager *metrics.Manager) *Holder {
	return &Holder{
		aggregator:     aggregator,
		metricsManager: metricsManager,
		snapshot:       EmptySnapshot(),
	}
}

func (h *Holder) Current() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot
}

// Refresh builds a fresh snapshot for the given user and installs it,
// unless a newer refresh was issued while this one was in flight.
func (h *Holder) Refresh(ctx context.Context, userID int, role fitness.Role) {
	generation := atomic.AddUint64(&h.issued, 1)

	snapshot := h.aggregator.Load(ctx, userID, role)

	h.mu.Lock()
	defer h.mu.Unlock()
	if generation < atomic.LoadUint64(&h.issued) || generation <= h.applied {
		h.metricsManager.CounterStaleRefreshesDropped.Inc()
		log.Debugf("dropping stale dashboard refresh (generation %d)", generation)
		return
	}
	h.snapshot = snapshot
	h.applied = generation
}

// Reset drops the held snapshot back to empty, on logout. It counts as a
// new generation so in-flight refreshes for the previous user get dropped
// when they settle.
func (h *Holder) Reset() {
	generation := atomic.AddUint64(&h.issued, 1)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = EmptySnapshot()
	h.applied = generation
}
