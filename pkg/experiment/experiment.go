package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boristopalov/sawyer/pkg/agent"
	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/messaging"
)

var ErrAlreadyRunning = errors.New("experiment already running")

// EnvFactory builds the environment owned by one worker.
type EnvFactory func(worker int) (core.Environment, error)

// AgentFactory builds the agent owned by one worker.
type AgentFactory func(worker int) (agent.Agent, error)

// targetRewarder is implemented by tasks that know their best possible
// per-step reward.
type targetRewarder interface {
	TargetReward() float64
}

// Rollout runs episodes of one agent against one environment per worker
type Rollout struct {
	name      string
	newEnv    EnvFactory
	newAgent  AgentFactory
	episodes  int
	workers   int
	publisher messaging.Publisher
	stats     *StatsWriter
	metrics   *Metrics
	logger    *zap.Logger

	mu      sync.RWMutex
	status  core.ExperimentStatus
	results []EpisodeStats
	cancel  context.CancelFunc
}

type RolloutOption func(*Rollout)

func WithName(name string) RolloutOption {
	return func(r *Rollout) {
		r.name = name
	}
}

func WithEpisodes(n int) RolloutOption {
	return func(r *Rollout) {
		r.episodes = n
	}
}

func WithWorkers(n int) RolloutOption {
	return func(r *Rollout) {
		r.workers = n
	}
}

// WithPublisher sends a step event per transition and an episode_end event
// per episode.
func WithPublisher(p messaging.Publisher) RolloutOption {
	return func(r *Rollout) {
		r.publisher = p
	}
}

func WithStatsWriter(w *StatsWriter) RolloutOption {
	return func(r *Rollout) {
		r.stats = w
	}
}

func WithMetrics(m *Metrics) RolloutOption {
	return func(r *Rollout) {
		r.metrics = m
	}
}

func WithLogger(logger *zap.Logger) RolloutOption {
	return func(r *Rollout) {
		r.logger = logger
	}
}

func NewRollout(newEnv EnvFactory, newAgent AgentFactory, opts ...RolloutOption) (*Rollout, error) {
	if newEnv == nil || newAgent == nil {
		return nil, errors.New("rollout: environment and agent factories are required")
	}
	r := &Rollout{
		name:     "rollout",
		newEnv:   newEnv,
		newAgent: newAgent,
		episodes: 1,
		workers:  1,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.episodes < 1 {
		return nil, fmt.Errorf("rollout: episodes must be positive, got %d", r.episodes)
	}
	if r.workers < 1 {
		return nil, fmt.Errorf("rollout: workers must be positive, got %d", r.workers)
	}
	if r.workers > r.episodes {
		r.workers = r.episodes
	}
	r.logger = r.logger.With(zap.String("experiment", r.name))
	return r, nil
}

// Run executes every episode and returns the first error any worker hit.
// Results of the episodes finished before the error stay available.
func (r *Rollout) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.status.Running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.status = core.ExperimentStatus{Running: true, StartTime: time.Now()}
	r.results = nil
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		r.status.Running = false
		r.status.EndTime = time.Now()
		r.mu.Unlock()
	}()

	jobs := make(chan int, r.episodes)
	for i := 0; i < r.episodes; i++ {
		jobs <- i
	}
	close(jobs)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < r.workers; w++ {
		g.Go(func() error {
			return r.work(gctx, w, jobs)
		})
	}
	err := g.Wait()
	if err != nil {
		r.mu.Lock()
		r.status.Errors = append(r.status.Errors, err)
		r.mu.Unlock()
		r.logger.Error("rollout failed", zap.Error(err))
		return err
	}

	r.logger.Info("rollout finished",
		zap.Int("episodes", r.episodes),
		zap.Duration("elapsed", time.Since(r.GetStatus().StartTime)))
	return nil
}

func (r *Rollout) work(ctx context.Context, worker int, jobs <-chan int) error {
	env, err := r.newEnv(worker)
	if err != nil {
		return fmt.Errorf("worker %d: failed to create environment: %w", worker, err)
	}
	a, err := r.newAgent(worker)
	if err != nil {
		return fmt.Errorf("worker %d: failed to create agent: %w", worker, err)
	}
	for idx := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats, err := r.runEpisode(ctx, worker, idx, env, a)
		if err != nil {
			return fmt.Errorf("worker %d: episode %d: %w", worker, idx, err)
		}
		r.record(stats)
	}
	return nil
}

func (r *Rollout) runEpisode(ctx context.Context, worker, idx int, env core.Environment, a agent.Agent) (EpisodeStats, error) {
	source := fmt.Sprintf("%s-%d", r.name, worker)
	stats := EpisodeStats{
		EpisodeID:    uuid.New().String(),
		Episode:      idx,
		Worker:       worker,
		AgentID:      a.GetID(),
		MinReachDist: math.Inf(1),
	}
	if rs, ok := a.(agent.Resetter); ok {
		rs.Reset()
	}
	obs, err := env.Reset(ctx)
	if err != nil {
		return stats, fmt.Errorf("reset: %w", err)
	}
	if tr, ok := env.(targetRewarder); ok {
		stats.TargetReward = tr.TargetReward()
	}
	observer, _ := a.(agent.Observer)

	for t := 0; t < env.MaxPathLength(); t++ {
		action, err := a.Act(ctx, obs)
		if err != nil {
			return stats, fmt.Errorf("act at step %d: %w", t, err)
		}
		res, err := env.Step(ctx, action)
		if err != nil {
			return stats, fmt.Errorf("step %d: %w", t, err)
		}

		transition := core.Transition{
			Step:        t,
			Observation: obs,
			Action:      action,
			Reward:      res.Reward,
			Next:        res.Observation,
			Info:        res.Info,
		}
		if observer != nil {
			if err := observer.Observe(ctx, transition); err != nil {
				return stats, fmt.Errorf("observe step %d: %w", t, err)
			}
		}
		r.publish(source, stats.EpisodeID, messaging.KindStep, transition)
		if r.metrics != nil {
			r.metrics.ObserveStep(res.Reward)
		}

		stats.Return += res.Reward
		stats.Length++
		stats.FinalGoalDist = res.Info.GoalDist
		stats.MinReachDist = math.Min(stats.MinReachDist, res.Info.ReachDist)
		stats.Success = res.Info.Success > 0
		obs = res.Observation
		if res.Done || res.Truncated {
			break
		}
	}
	if stats.Length == 0 {
		stats.MinReachDist = 0
	}

	r.publish(source, stats.EpisodeID, messaging.KindEpisodeEnd, stats)
	r.logger.Debug("episode finished",
		zap.Int("episode", idx),
		zap.Int("worker", worker),
		zap.Float64("return", stats.Return),
		zap.Bool("success", stats.Success))
	return stats, nil
}

func (r *Rollout) record(stats EpisodeStats) {
	r.mu.Lock()
	r.results = append(r.results, stats)
	r.status.Episodes++
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ObserveEpisode(stats)
	}
	if r.stats != nil {
		if err := r.stats.Write(stats); err != nil {
			r.logger.Warn("failed to write episode stats", zap.Error(err))
		}
	}
}

// publish never fails an episode: a slow observer only loses events.
func (r *Rollout) publish(source, episodeID string, kind messaging.EventKind, payload any) {
	if r.publisher == nil {
		return
	}
	err := r.publisher.Publish(messaging.Event{
		Source:    source,
		Kind:      kind,
		EpisodeID: episodeID,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		r.logger.Warn("failed to publish event", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// Stop cancels a running experiment. It is a no-op otherwise.
func (r *Rollout) Stop() error {
	r.mu.RLock()
	cancel := r.cancel
	r.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (r *Rollout) GetStatus() core.ExperimentStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status := r.status
	status.Errors = append([]error(nil), r.status.Errors...)
	return status
}

// Results returns the finished episodes ordered by episode index.
func (r *Rollout) Results() []EpisodeStats {
	r.mu.RLock()
	out := append([]EpisodeStats(nil), r.results...)
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Episode < out[j].Episode })
	return out
}

func (r *Rollout) Summary() Summary {
	return Summarize(r.Results())
}

var _ core.Experiment = (*Rollout)(nil)
