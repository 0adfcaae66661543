package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/tavern/internal/domain/encounter"
	"github.com/okian/tavern/pkg/logger"
)

// ErrMismatch is returned when the server disagreed with the local evaluator.
var ErrMismatch = errors.New("server results differ from local evaluation")

const directoryPermission = 0o755

type outcome int

const (
	outcomeMatched outcome = iota
	outcomeMismatched
	outcomeFailed
)

type verdict struct {
	outcome    outcome
	difficulty encounter.Difficulty
}

// Run checks the service health, generates encounters, submits them through a
// worker pool and verifies each answer.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	cfg = cfg.withDefaults()
	stats := Stats{StartTime: time.Now(), ByDiff: make(map[encounter.Difficulty]int)}
	if err := cfg.validate(); err != nil {
		return stats, err
	}
	log := logger.Named("loadtest")
	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := checkHealth(ctx, c); err != nil {
		return stats, err
	}

	cases := Generate(cfg, cfg.Encounters)
	stats.Generated = len(cases)
	log.Info(ctx, "generated encounters", logger.Int("count", len(cases)), logger.Any("seed", cfg.Seed))

	if cfg.OutputFile != "" {
		if err := saveCases(cfg.OutputFile, cases); err != nil {
			return stats, err
		}
		log.Info(ctx, "encounters saved to file", logger.String("filename", cfg.OutputFile))
	}

	results := submit(ctx, c, cfg.Workers, cases)
	for _, v := range results {
		stats.Submitted++
		switch v.outcome {
		case outcomeMatched:
			stats.Matched++
			stats.ByDiff[v.difficulty]++
		case outcomeMismatched:
			stats.Mismatched++
		case outcomeFailed:
			stats.Failed++
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "load test completed",
		logger.Int("submitted", stats.Submitted),
		logger.Int("matched", stats.Matched),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("perSecond", stats.Rate()))

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("load test interrupted: %w", err)
	}
	if stats.Mismatched > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrMismatch, stats.Mismatched, stats.Submitted)
	}
	return stats, nil
}

func checkHealth(ctx context.Context, c *client) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// submit fans cases out to workers. Cases skipped after cancellation are not
// reported.
func submit(ctx context.Context, c *client, workers int, cases []Case) []verdict {
	jobs := make(chan Case, workers*2)
	out := make(chan verdict, workers*2)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tc := range jobs {
				out <- check(ctx, c, tc)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, tc := range cases {
			select {
			case <-ctx.Done():
				return
			case jobs <- tc:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	verdicts := make([]verdict, 0, len(cases))
	for v := range out {
		verdicts = append(verdicts, v)
	}
	return verdicts
}

// check posts one case and compares the answer with encounter.Evaluate.
func check(ctx context.Context, c *client, tc Case) verdict {
	var got encounter.Result
	if err := c.postJSON(ctx, "/evaluate", tc, &got); err != nil {
		logger.Named("loadtest").Debug(ctx, "evaluate request failed", logger.Error(err))
		return verdict{outcome: outcomeFailed}
	}
	want, err := encounter.Evaluate(tc.Party, tc.Monsters)
	if err != nil {
		return verdict{outcome: outcomeFailed}
	}
	if got.Difficulty != want.Difficulty || got.TotalXP != want.TotalXP || got.AdjustedXP != want.AdjustedXP {
		logger.Named("loadtest").Warn(ctx, "result mismatch",
			logger.Any("case", tc),
			logger.String("want", string(want.Difficulty)),
			logger.String("got", string(got.Difficulty)))
		return verdict{outcome: outcomeMismatched}
	}
	return verdict{outcome: outcomeMatched, difficulty: got.Difficulty}
}

func saveCases(filename string, cases []Case) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal encounters: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
