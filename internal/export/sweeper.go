package export

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SweeperConfig holds configuration for the temp-file sweeper.
type SweeperConfig struct {
	// Interval is how often the sweep runs. Default: 10 minutes.
	Interval time.Duration

	// MaxAge is the age past which an export file is deleted.
	// Default: 1 hour.
	MaxAge time.Duration
}

// Sweeper periodically deletes stale export files from the temp
// directory. Exports are one-shot downloads; anything older than
// MaxAge is garbage.
type Sweeper struct {
	dir       string
	config    SweeperConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewSweeper creates a sweeper for the given directory.
func NewSweeper(dir string, config SweeperConfig) *Sweeper {
	if config.Interval == 0 {
		config.Interval = 10 * time.Minute
	}
	if config.MaxAge == 0 {
		config.MaxAge = time.Hour
	}

	return &Sweeper{
		dir:    dir,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[Sweeper] Started - Interval: %v, MaxAge: %v", s.config.Interval, s.config.MaxAge)

	go s.run()
}

func (s *Sweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			if removed, err := s.RunNow(); err != nil {
				log.Printf("[Sweeper] Error during sweep: %v", err)
			} else if removed > 0 {
				log.Printf("[Sweeper] Removed %d stale export files", removed)
			}
		case <-s.stopCh:
			log.Printf("[Sweeper] Stopped")
			return
		}
	}
}

// RunNow sweeps immediately and returns the number of files removed.
func (s *Sweeper) RunNow() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-s.config.MaxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				log.Printf("[Sweeper] Failed to remove %s: %v", entry.Name(), err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// Stop stops the sweep loop.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
