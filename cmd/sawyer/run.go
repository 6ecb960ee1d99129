package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boristopalov/sawyer/internal/client"
	"github.com/boristopalov/sawyer/pkg/agent"
	"github.com/boristopalov/sawyer/pkg/config"
	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/environment"
	"github.com/boristopalov/sawyer/pkg/experiment"
	"github.com/boristopalov/sawyer/pkg/logging"
	"github.com/boristopalov/sawyer/pkg/messaging"
	"github.com/boristopalov/sawyer/pkg/providers"
	"github.com/boristopalov/sawyer/pkg/sim"
)

type runFlags struct {
	configPath  string
	episodes    int
	workers     int
	agentType   string
	simURL      string
	seed        uint64
	statsDir    string
	noStats     bool
	metricsAddr string
	logLevel    string
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run evaluation episodes of an agent on the sweep task",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd, f)
			if err != nil {
				return err
			}
			return runExperiment(cmd, cfg, f.noStats)
		},
	}
	bindRunFlags(cmd, f)
	return cmd
}

func bindRunFlags(cmd *cobra.Command, f *runFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML experiment config")
	fs.IntVarP(&f.episodes, "episodes", "n", 0, "number of episodes")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers")
	fs.StringVarP(&f.agentType, "agent", "a", "", "agent type: random, scripted or llm")
	fs.StringVar(&f.simURL, "sim", "", "websocket URL of a simulator bridge (default: in-process kinematic simulator)")
	fs.Uint64Var(&f.seed, "seed", 0, "base random seed")
	fs.StringVar(&f.statsDir, "stats-dir", "", "directory for the episode CSV")
	fs.BoolVar(&f.noStats, "no-stats", false, "do not write the episode CSV")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
}

// loadRunConfig reads the config file, if any, and applies the flags the
// user set on top of it.
func loadRunConfig(cmd *cobra.Command, f *runFlags) (*config.ExperimentConfig, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(f.configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("episodes") {
		cfg.Episodes = f.episodes
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("agent") {
		cfg.Agent.Type = f.agentType
	}
	if flags.Changed("sim") {
		cfg.Simulator.URL = f.simURL
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
	if flags.Changed("stats-dir") {
		cfg.StatsDir = f.statsDir
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExperiment(cmd *cobra.Command, cfg *config.ExperimentConfig, noStats bool) error {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Encoding, cfg.Logging.Path)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Info("interrupted, stopping")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Simulator.URL != "" && cfg.Workers > 1 {
		logger.Warn("a simulator bridge serves one arm, running with a single worker",
			zap.Int("requested_workers", cfg.Workers))
		cfg.Workers = 1
	}

	sims := &simPool{cfg: cfg.Simulator, logger: logger}
	defer sims.Close()

	opts := []experiment.RolloutOption{
		experiment.WithName(cfg.Name),
		experiment.WithEpisodes(cfg.Episodes),
		experiment.WithWorkers(cfg.Workers),
		experiment.WithLogger(logger),
	}

	broker := messaging.NewBroker()
	defer broker.Reset()
	events := make(chan messaging.Event, 256)
	if err := broker.Subscribe("progress", events); err != nil {
		return err
	}
	opts = append(opts, experiment.WithPublisher(broker))
	go logProgress(ctx, logger, events)

	if !noStats {
		sw, err := experiment.CreateStatsFile(cfg.StatsDir)
		if err != nil {
			return err
		}
		defer sw.Close()
		logger.Info("writing episode stats", zap.String("path", sw.Path()))
		opts = append(opts, experiment.WithStatsWriter(sw))
	}

	if cfg.Metrics.Addr != "" {
		metrics := experiment.NewMetrics(cfg.Name)
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
		opts = append(opts, experiment.WithMetrics(metrics))
	}

	newAgent, err := agentFactory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	rollout, err := experiment.NewRollout(envFactory(cfg, sims, logger), newAgent, opts...)
	if err != nil {
		return err
	}

	logger.Info("starting experiment",
		zap.String("name", cfg.Name),
		zap.String("agent", cfg.Agent.Type),
		zap.Int("episodes", cfg.Episodes),
		zap.Int("workers", cfg.Workers))
	runErr := rollout.Run(ctx)

	if results := rollout.Results(); len(results) > 0 {
		if err := experiment.RenderSummary(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("experiment failed: %w", runErr)
	}
	return nil
}

func envFactory(cfg *config.ExperimentConfig, sims *simPool, logger *zap.Logger) experiment.EnvFactory {
	return func(worker int) (core.Environment, error) {
		s, err := sims.Get(worker)
		if err != nil {
			return nil, err
		}
		return environment.Make(cfg.Environment.Type, s,
			environment.WithSeed(cfg.Seed+uint64(worker)),
			environment.WithRandomInit(cfg.Environment.RandomInitEnabled()),
			environment.WithMaxPathLength(cfg.Environment.MaxPathLength),
			environment.WithFrameSkip(cfg.Environment.FrameSkip),
			environment.WithLogger(logger.With(zap.Int("worker", worker))),
		)
	}
}

func agentFactory(ctx context.Context, cfg *config.ExperimentConfig, logger *zap.Logger) (experiment.AgentFactory, error) {
	var llm providers.LLMClient
	if cfg.Agent.Type == "llm" {
		var err error
		if llm, err = providers.New(ctx, cfg.Agent.Provider); err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", cfg.Agent.Provider, err)
		}
	}
	return func(worker int) (agent.Agent, error) {
		opts := []agent.AgentOption{
			agent.WithAgentId(fmt.Sprintf("%s-%s-%d", cfg.Name, cfg.Agent.Type, worker)),
			agent.WithSeed(cfg.Seed + uint64(worker)),
			agent.WithLogger(logger),
		}
		switch cfg.Agent.Type {
		case "random":
			return agent.NewRandomAgent(opts...)
		case "scripted":
			return agent.NewScriptedAgent(opts...), nil
		case "llm":
			opts = append(opts,
				agent.WithClient(llm),
				agent.WithModel(agent.ModelInfo{Id: cfg.Agent.ModelName(), Config: cfg.Agent.Config}),
				agent.WithMemoryCapacity(cfg.Agent.MemoryCapacity),
			)
			return agent.NewLLMAgent(opts...)
		}
		return nil, fmt.Errorf("unknown agent type %q", cfg.Agent.Type)
	}, nil
}

// simPool hands every worker its own simulator.
type simPool struct {
	cfg    config.SimConfig
	logger *zap.Logger

	mu      sync.Mutex
	clients []*client.SimClient
}

func (p *simPool) Get(worker int) (sim.Simulator, error) {
	if p.cfg.URL == "" {
		return sim.NewKinematic(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout(p.cfg.Timeout))
	defer cancel()
	c, err := client.Dial(ctx, p.cfg.URL,
		client.WithTimeout(dialTimeout(p.cfg.Timeout)),
		client.WithLogger(p.logger.With(zap.Int("worker", worker))))
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.clients = append(p.clients, c)
	p.mu.Unlock()
	return c, nil
}

func (p *simPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		if err := c.Close(); err != nil {
			p.logger.Debug("closing simulator connection", zap.Error(err))
		}
	}
	p.clients = nil
}

func dialTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func logProgress(ctx context.Context, logger *zap.Logger, events <-chan messaging.Event) {
	for {
		select {
		case ev := <-events:
			if ev.Kind != messaging.KindEpisodeEnd {
				continue
			}
			if stats, ok := ev.Payload.(experiment.EpisodeStats); ok {
				logger.Info("episode finished",
					zap.String("source", ev.Source),
					zap.Int("episode", stats.Episode),
					zap.Float64("return", stats.Return),
					zap.Float64("final_goal_dist", stats.FinalGoalDist),
					zap.Bool("success", stats.Success))
			}
		case <-ctx.Done():
			return
		}
	}
}
