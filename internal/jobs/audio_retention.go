package jobs

import (
	"log"
	"sync"
	"time"
)

// Purger deletes generated audio older than a cutoff. *audio.Store satisfies it.
type Purger interface {
	PurgeOlderThan(cutoff time.Time) (int, error)
}

// AudioRetentionJob periodically removes generated question audio once it is
// older than the retention window.
type AudioRetentionJob struct {
	files     Purger
	logger    *log.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewAudioRetentionJob creates a new audio retention job.
// Defaults: 14 days retention, checked hourly.
func NewAudioRetentionJob(files Purger, logger *log.Logger, retention, interval time.Duration) *AudioRetentionJob {
	if retention == 0 {
		retention = 14 * 24 * time.Hour
	}
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &AudioRetentionJob{
		files:     files,
		logger:    logger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background job.
func (j *AudioRetentionJob) Start() {
	j.wg.Add(1)
	go j.run()
	j.logger.Printf("AudioRetentionJob: started (retention=%v, interval=%v)", j.retention, j.interval)
}

// Stop gracefully stops the background job. Safe to call more than once.
func (j *AudioRetentionJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopCh)
		j.wg.Wait()
		j.logger.Println("AudioRetentionJob: stopped")
	})
}

func (j *AudioRetentionJob) run() {
	defer j.wg.Done()

	// Run immediately on start
	j.RunOnce()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.stopCh:
			return
		}
	}
}

// RunOnce performs a single purge pass and returns how many files were removed.
func (j *AudioRetentionJob) RunOnce() int {
	n, err := j.files.PurgeOlderThan(j.now().Add(-j.retention))
	if err != nil {
		j.logger.Printf("AudioRetentionJob: purge failed: %v", err)
		return 0
	}
	if n > 0 {
		j.logger.Printf("AudioRetentionJob: removed %d audio files", n)
	}
	return n
}
