package experiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// EpisodeStats summarizes one finished episode
type EpisodeStats struct {
	EpisodeID     string
	Episode       int
	Worker        int
	AgentID       string
	Return        float64
	Length        int
	FinalGoalDist float64
	MinReachDist  float64
	Success       bool
	TargetReward  float64
}

// Summary aggregates a set of episodes
type Summary struct {
	Episodes          int
	MeanReturn        float64
	StdReturn         float64
	MeanLength        float64
	SuccessRate       float64
	MeanFinalGoalDist float64
}

func Summarize(episodes []EpisodeStats) Summary {
	n := len(episodes)
	if n == 0 {
		return Summary{}
	}
	returns := make([]float64, n)
	lengths := make([]float64, n)
	dists := make([]float64, n)
	successes := 0
	for i, ep := range episodes {
		returns[i] = ep.Return
		lengths[i] = float64(ep.Length)
		dists[i] = ep.FinalGoalDist
		if ep.Success {
			successes++
		}
	}
	s := Summary{
		Episodes:          n,
		MeanLength:        stat.Mean(lengths, nil),
		SuccessRate:       float64(successes) / float64(n),
		MeanFinalGoalDist: stat.Mean(dists, nil),
	}
	if n == 1 {
		s.MeanReturn = returns[0]
		return s
	}
	s.MeanReturn, s.StdReturn = stat.MeanStdDev(returns, nil)
	return s
}

var statsHeader = []string{
	"Episode", "EpisodeID", "Worker", "AgentID", "Return", "Length",
	"FinalGoalDist", "MinReachDist", "Success", "TargetReward",
}

// StatsWriter appends one CSV row per episode. It is safe for concurrent use.
type StatsWriter struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	path   string
}

// NewStatsWriter writes the header and returns a writer over w.
func NewStatsWriter(w io.Writer) (*StatsWriter, error) {
	sw := &StatsWriter{w: csv.NewWriter(w)}
	if err := sw.writeRow(statsHeader); err != nil {
		return nil, err
	}
	return sw, nil
}

// CreateStatsFile creates episode_stats_<timestamp>.csv in dir.
func CreateStatsFile(dir string) (*StatsWriter, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(dir, fmt.Sprintf("episode_stats_%s.csv", timestamp))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats file: %w", err)
	}
	sw, err := NewStatsWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	sw.closer = f
	sw.path = path
	return sw, nil
}

// Path is the file being written, empty for writers over an io.Writer.
func (s *StatsWriter) Path() string {
	return s.path
}

func (s *StatsWriter) Write(ep EpisodeStats) error {
	return s.writeRow([]string{
		strconv.Itoa(ep.Episode),
		ep.EpisodeID,
		strconv.Itoa(ep.Worker),
		ep.AgentID,
		formatFloat(ep.Return),
		strconv.Itoa(ep.Length),
		formatFloat(ep.FinalGoalDist),
		formatFloat(ep.MinReachDist),
		strconv.FormatBool(ep.Success),
		formatFloat(ep.TargetReward),
	})
}

func (s *StatsWriter) writeRow(row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *StatsWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if s.closer == nil {
		return s.w.Error()
	}
	return s.closer.Close()
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
