// Package scheduler periodically reloads the flights file so the query
// service follows an externally refreshed schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ngmaloney/flightmap/internal/cache"
	"github.com/ngmaloney/flightmap/internal/importer"
)

// Scheduler wraps robfig/cron and runs the import job.
type Scheduler struct {
	cron  *cron.Cron
	store importer.Store
	cache cache.Cache
	path  string
	spec  string // cron spec, e.g. "@every 6h"

	mu       sync.Mutex
	lastMod  time.Time
	lastSize int64
}

// New creates a Scheduler that replaces all flights with the contents of path
// on every tick of spec.
func New(s importer.Store, c cache.Cache, path, spec string) *Scheduler {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Scheduler{
		cron:  cron.New(cron.WithLogger(cron.DefaultLogger)),
		store: s,
		cache: c,
		path:  path,
		spec:  spec,
	}
}

// Start registers the job and starts the scheduler. One import runs
// immediately so a fresh database is populated without waiting for a tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runImport(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s, file: %s", s.spec, s.path)

	go s.runImport(ctx)

	return nil
}

// Stop shuts the scheduler down and waits for a running import to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

// runImport reloads the flights file when it changed since the last run.
// It reports whether an import happened.
func (s *Scheduler) runImport(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		log.Printf("[scheduler] flights file: %v", err)
		return false
	}
	if info.ModTime().Equal(s.lastMod) && info.Size() == s.lastSize {
		log.Println("[scheduler] flights file unchanged, skipping import")
		return false
	}

	n, err := importer.ImportFlightsFile(ctx, s.store, s.path, true)
	if err != nil {
		log.Printf("[scheduler] import failed: %v", err)
		return false
	}

	s.lastMod = info.ModTime()
	s.lastSize = info.Size()

	if err := s.cache.Purge(ctx); err != nil {
		log.Printf("[scheduler] cache purge failed: %v", err)
	}
	log.Printf("[scheduler] Import complete, %d flights", n)
	return true
}
