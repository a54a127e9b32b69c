// Package refresh regenerates an .ics file from a journey source, either
// once or on a cron schedule, so delay updates reach subscribed calendars.
package refresh

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"trainics/internal/config"
	"trainics/internal/hafas"
	"trainics/internal/ics"
	appLog "trainics/internal/log"
	"trainics/internal/model"
	"trainics/internal/source"
	"trainics/internal/transform"
)

// Loader loads a journey from a source.
type Loader interface {
	Load(ctx context.Context, src source.Source) (*hafas.Journey, error)
}

// Convert loads the configured journey and converts it into a calendar.
func Convert(ctx context.Context, loader Loader, cfg *config.Config) (model.Calendar, error) {
	src := source.Source{File: cfg.Journey.File, URL: cfg.Journey.URL}
	if src.File == "" && src.URL == "" {
		return model.Calendar{}, errors.New("no journey file or URL configured")
	}

	journey, err := loader.Load(ctx, src)
	if err != nil {
		return model.Calendar{}, fmt.Errorf("load journey: %w", err)
	}

	return transform.ToCalendar(journey, cfg.Timezone, transform.Options{
		DepartureTZOffset: cfg.DepartureTZOffset,
		Links:             cfg.Links,
		Location:          cfg.Location(),
	})
}

// Job rewrites cfg.Output whenever the converted events change.
type Job struct {
	cfg    *config.Config
	loader Loader
	now    func() time.Time

	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

func NewJob(cfg *config.Config, loader Loader) *Job {
	return &Job{cfg: cfg, loader: loader, now: time.Now}
}

// RunOnce converts the journey and writes the output file. written is false
// when the events are unchanged since the last run.
func (j *Job) RunOnce(ctx context.Context) (written bool, err error) {
	if j.cfg.Output == "" {
		return false, errors.New("refresh: output path is empty")
	}

	cal, err := Convert(ctx, j.loader, j.cfg)
	if err != nil {
		return false, err
	}

	// DTSTAMP changes every run, so compare a serialization at a fixed instant.
	sum := sha256.Sum256([]byte(ics.Serialize(cal, time.Unix(0, 0))))

	j.mu.Lock()
	defer j.mu.Unlock()
	if sum == j.lastHash {
		appLog.Debug("refresh: calendar unchanged", "output", j.cfg.Output)
		return false, nil
	}

	var buf bytes.Buffer
	if err := ics.Write(&buf, cal, j.now()); err != nil {
		return false, err
	}
	if err := writeFileAtomic(j.cfg.Output, buf.Bytes()); err != nil {
		return false, err
	}
	j.lastHash = sum

	appLog.Info("refresh: calendar written", "output", j.cfg.Output, "name", cal.Name, "events", len(cal.Events))
	return true, nil
}

// Run executes the job immediately and then on cfg.RefreshCron until ctx is
// canceled. Failed runs are logged; the schedule keeps going.
func (j *Job) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(j.cfg.RefreshCron, func() { j.runLogged(ctx) }); err != nil {
		return fmt.Errorf("refresh: invalid schedule %q: %w", j.cfg.RefreshCron, err)
	}

	j.runLogged(ctx)

	c.Start()
	appLog.Info("refresh: scheduler started", "schedule", j.cfg.RefreshCron, "output", j.cfg.Output)

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("refresh: scheduler stopped")
	return nil
}

func (j *Job) runLogged(ctx context.Context) {
	if _, err := j.RunOnce(ctx); err != nil {
		appLog.Error("refresh: run failed", err, "output", j.cfg.Output)
	}
}

// writeFileAtomic writes via a temp file + rename in the target directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".trainics-*.ics.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
