package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

const metricsNamespace = "brain"

// PromMetrics exports live agent counters on its own registry. It implements
// core.AgentMetrics.
type PromMetrics struct {
	registry *prometheus.Registry

	ticks            *prometheus.CounterVec
	goalsFinished    *prometheus.CounterVec
	wordsTaught      *prometheus.CounterVec
	reflectionPasses prometheus.Counter
	eventsProcessed  prometheus.Counter
	eventsSkipped    prometheus.Counter
	activeGoals      prometheus.Gauge
	lexiconWords     prometheus.Gauge
	conceptNodes     prometheus.Gauge
}

var _ core.AgentMetrics = (*PromMetrics)(nil)

// NewPromMetrics creates the collectors and registers them, together with
// the Go runtime collector, on a private registry.
func NewPromMetrics() *PromMetrics {
	m := &PromMetrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks by the kind of work performed.",
		}, []string{"kind"}),
		goalsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "goals_finished_total",
			Help:      "Goals that reached a terminal status.",
		}, []string{"kind", "status"}),
		wordsTaught: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "words_taught_total",
			Help:      "Lexicon entries written through the teach path.",
		}, []string{"source"}),
		reflectionPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reflection_passes_total",
			Help:      "Reflection passes run.",
		}),
		eventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reflection_events_processed_total",
			Help:      "Events folded into the concept graph.",
		}),
		eventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reflection_events_skipped_total",
			Help:      "Events skipped as inconsistent.",
		}),
		activeGoals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_goals",
			Help:      "Goals not yet in a terminal status.",
		}),
		lexiconWords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "lexicon_words",
			Help:      "Words in the lexicon.",
		}),
		conceptNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "concept_nodes",
			Help:      "Nodes in the concept graph.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.ticks, m.goalsFinished, m.wordsTaught,
		m.reflectionPasses, m.eventsProcessed, m.eventsSkipped,
		m.activeGoals, m.lexiconWords, m.conceptNodes,
	)
	return m
}

func (m *PromMetrics) TickCompleted(kind core.TickKind) {
	m.ticks.WithLabelValues(string(kind)).Inc()
}

func (m *PromMetrics) GoalFinished(kind models.GoalKind, status models.GoalStatus) {
	m.goalsFinished.WithLabelValues(string(kind), string(status)).Inc()
}

func (m *PromMetrics) WordTaught(source string) {
	m.wordsTaught.WithLabelValues(source).Inc()
}

func (m *PromMetrics) ReflectionPass(processed, skipped int) {
	m.reflectionPasses.Inc()
	m.eventsProcessed.Add(float64(processed))
	m.eventsSkipped.Add(float64(skipped))
}

func (m *PromMetrics) SetSizes(activeGoals, lexiconWords, conceptNodes int) {
	m.activeGoals.Set(float64(activeGoals))
	m.lexiconWords.Set(float64(lexiconWords))
	m.conceptNodes.Set(float64(conceptNodes))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *PromMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PromMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
