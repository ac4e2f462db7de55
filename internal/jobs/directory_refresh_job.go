package jobs

import (
	"context"
	"log"
	"time"

	"skydeck/flightdeck/internal/directory"
)

// DirectoryRefreshJob keeps the airport directory fresh by replacing it
// wholesale once its TTL lapses. The tick is much shorter than the TTL so a
// missed window is picked up within a day.
type DirectoryRefreshJob struct {
	dir *directory.Service
}

// NewDirectoryRefreshJob creates a new directory refresh job instance
func NewDirectoryRefreshJob(dir *directory.Service) *DirectoryRefreshJob {
	return &DirectoryRefreshJob{dir: dir}
}

// Run refreshes the directory if its TTL has lapsed.
func (j *DirectoryRefreshJob) Run(ctx context.Context) error {
	start := time.Now()
	refreshed, err := j.dir.RefreshIfDue(ctx)
	if err != nil {
		log.Printf("[DirectoryRefreshJob] Refresh check failed: %v", err)
		return err
	}
	if refreshed {
		log.Printf("[DirectoryRefreshJob] Directory refreshed in %s",
			time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

// RunScheduled checks the directory TTL on a fixed tick until ctx is done.
func (j *DirectoryRefreshJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := j.Run(ctx); err != nil {
		log.Printf("[DirectoryRefreshJob] Error in initial run: %v", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Printf("[DirectoryRefreshJob] Error in scheduled run: %v", err)
			}
		case <-ctx.Done():
			log.Printf("[DirectoryRefreshJob] Shutting down scheduled refresh")
			return
		}
	}
}
