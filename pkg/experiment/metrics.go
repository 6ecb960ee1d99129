package experiment

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks experiment progress on its own registry
type Metrics struct {
	registry      *prometheus.Registry
	steps         prometheus.Counter
	episodes      prometheus.Counter
	successes     prometheus.Counter
	stepReward    prometheus.Histogram
	episodeReturn prometheus.Histogram
	finalGoalDist prometheus.Histogram
}

func NewMetrics(experiment string) *Metrics {
	labels := prometheus.Labels{"experiment": experiment}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sawyer_steps_total",
			Help:        "Environment steps taken",
			ConstLabels: labels,
		}),
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sawyer_episodes_total",
			Help:        "Episodes finished",
			ConstLabels: labels,
		}),
		successes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sawyer_episode_successes_total",
			Help:        "Episodes that ended with the puck at the goal",
			ConstLabels: labels,
		}),
		stepReward: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "sawyer_step_reward",
			Help:        "Per-step reward",
			ConstLabels: labels,
			Buckets:     []float64{-0.5, -0.1, 0, 100, 500, 1000, 1500, 2000, 2500},
		}),
		episodeReturn: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "sawyer_episode_return",
			Help:        "Undiscounted episode return",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(10, 4, 8),
		}),
		finalGoalDist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "sawyer_final_goal_distance",
			Help:        "Puck to goal xy distance at episode end",
			ConstLabels: labels,
			Buckets:     prometheus.LinearBuckets(0, 0.1, 12),
		}),
	}
	m.registry.MustRegister(m.steps, m.episodes, m.successes, m.stepReward, m.episodeReturn, m.finalGoalDist)
	return m
}

func (m *Metrics) ObserveStep(reward float64) {
	m.steps.Inc()
	m.stepReward.Observe(reward)
}

func (m *Metrics) ObserveEpisode(ep EpisodeStats) {
	m.episodes.Inc()
	if ep.Success {
		m.successes.Inc()
	}
	m.episodeReturn.Observe(ep.Return)
	m.finalGoalDist.Observe(ep.FinalGoalDist)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
