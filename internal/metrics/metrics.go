package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "classifieds_bot"

// Metrics holds the bot's Prometheus collectors. All methods are safe to
// call on a nil *Metrics, which records nothing.
type Metrics struct {
	events          *prometheus.CounterVec
	droppedEvents   prometheus.Counter
	committed       *prometheus.CounterVec
	cancelled       prometheus.Counter
	expired         prometheus.Counter
	photosStored    prometheus.Counter
	photoFailures   prometheus.Counter
	photoRejections prometheus.Counter
	activeDrafts    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Inbound events processed, by event kind.",
		}, []string{"kind"}),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Inbound events dropped as duplicates or because a user's inbox was full.",
		}),
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_committed_total",
			Help:      "Listings committed to the store, by listing kind.",
		}, []string{"kind"}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_cancelled_total",
			Help:      "Drafts discarded by the user.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_expired_total",
			Help:      "Drafts discarded after the inactivity timeout.",
		}),
		photosStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photos_stored_total",
			Help:      "Photos attached to drafts.",
		}),
		photoFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_failures_total",
			Help:      "Photos that could not be fetched or stored.",
		}),
		photoRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_limit_rejections_total",
			Help:      "Photos rejected because the draft already had the maximum.",
		}),
		activeDrafts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_drafts",
			Help:      "Drafts currently in progress.",
		}),
	}

	var err error
	if m.events, err = register(reg, m.events); err != nil {
		return nil, err
	}
	if m.droppedEvents, err = register(reg, m.droppedEvents); err != nil {
		return nil, err
	}
	if m.committed, err = register(reg, m.committed); err != nil {
		return nil, err
	}
	if m.cancelled, err = register(reg, m.cancelled); err != nil {
		return nil, err
	}
	if m.expired, err = register(reg, m.expired); err != nil {
		return nil, err
	}
	if m.photosStored, err = register(reg, m.photosStored); err != nil {
		return nil, err
	}
	if m.photoFailures, err = register(reg, m.photoFailures); err != nil {
		return nil, err
	}
	if m.photoRejections, err = register(reg, m.photoRejections); err != nil {
		return nil, err
	}
	if m.activeDrafts, err = register(reg, m.activeDrafts); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, reusing the existing collector if an identical one
// is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("failed to register collector: %w", err)
	}
	return c, nil
}

// Handler serves the collectors registered with gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) EventReceived(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}

func (m *Metrics) DraftStarted() {
	if m == nil {
		return
	}
	m.activeDrafts.Inc()
}

// DraftEnded decrements the active draft gauge and counts the outcome.
func (m *Metrics) DraftEnded(outcome Outcome, kind string) {
	if m == nil {
		return
	}
	m.activeDrafts.Dec()
	switch outcome {
	case OutcomeCommitted:
		m.committed.WithLabelValues(kind).Inc()
	case OutcomeCancelled:
		m.cancelled.Inc()
	case OutcomeExpired:
		m.expired.Inc()
	}
}

func (m *Metrics) PhotoStored() {
	if m == nil {
		return
	}
	m.photosStored.Inc()
}

func (m *Metrics) PhotoFailed() {
	if m == nil {
		return
	}
	m.photoFailures.Inc()
}

func (m *Metrics) PhotoRejected() {
	if m == nil {
		return
	}
	m.photoRejections.Inc()
}

// Outcome is how a draft ended.
type Outcome int

const (
	OutcomeCommitted Outcome = iota + 1
	OutcomeCancelled
	OutcomeExpired
	// OutcomeReplaced is a draft overwritten by a new "create ad" or /start.
	OutcomeReplaced
)
