package dupfilehash

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// hashJob is one file to hash. The worker that receives it is the only writer of Record.
type hashJob struct {
	JobID  uint64
	Record *FileRecord
}

// hashManager runs a fixed pool of hash workers fed from a bounded job channel
type hashManager struct {
	jobChan      chan *hashJob
	wg           sync.WaitGroup
	shutdownChan <-chan struct{}
	algorithm    *HashAlgorithm
	bufferSize   int
	closed       bool
	closeMutex   sync.Mutex

	hashed atomic.Int64
	failed atomic.Int64
}

// newHashManager starts numWorkers hash workers
func newHashManager(numWorkers int, algorithm *HashAlgorithm, bufferSize int, shutdownChan <-chan struct{}) *hashManager {
	if numWorkers < 1 {
		numWorkers = 1
	}

	manager := &hashManager{
		jobChan:      make(chan *hashJob, numWorkers*4),
		shutdownChan: shutdownChan,
		algorithm:    algorithm,
		bufferSize:   bufferSize,
	}

	for i := 0; i < numWorkers; i++ {
		manager.wg.Add(1)
		go manager.hashWorker()
	}

	return manager
}

// Submit queues a job, returning false if shutdown was requested first
func (hm *hashManager) Submit(job *hashJob) bool {
	select {
	case hm.jobChan <- job:
		return true
	case <-hm.shutdownChan:
		return false
	}
}

// FinishSubmitting signals that no more hash jobs will be submitted
func (hm *hashManager) FinishSubmitting() {
	hm.closeMutex.Lock()
	defer hm.closeMutex.Unlock()

	if !hm.closed {
		close(hm.jobChan)
		hm.closed = true
	}
}

// Wait closes submission and blocks until every worker has exited
func (hm *hashManager) Wait() {
	hm.FinishSubmitting()
	hm.wg.Wait()
}

// hashWorker hashes files until the job channel closes or shutdown is requested
func (hm *hashManager) hashWorker() {
	defer hm.wg.Done()

	for {
		select {
		case job, ok := <-hm.jobChan:
			if !ok {
				return
			}

			DebugLog("hash", "hashing %s (job %d)", job.Record.Path, job.JobID)

			digest, err := HashFileInterruptible(job.Record.Path, hm.algorithm, hm.bufferSize, hm.shutdownChan)
			if err != nil {
				job.Record.HashErr = err
				if !errors.Is(err, ErrHashInterrupted) {
					hm.failed.Add(1)
					VerboseLog(2, "Hash failed for %s: %v", job.Record.Path, err)
				}
				continue
			}

			job.Record.Digest = digest
			hm.hashed.Add(1)
			DebugLog("hash", "hash completed for %s (job %d): %s", job.Record.Path, job.JobID, job.Record.DigestString())

		case <-hm.shutdownChan:
			return
		}
	}
}

// hashRunStats summarises one hashing stage
type hashRunStats struct {
	Hashed   int
	Failed   int
	Skipped  []SkippedGroup
	Eligible int
}

// hashSizeGroups hashes every member of each group whose size is within the ceiling.
// Oversized groups are logged, tagged in the index and returned in the stats; their files are never read.
// It returns the groups that were hashed. Read failures stay on the records and never abort the stage.
func hashSizeGroups(ctx context.Context, groups []SizeGroup, idx *recordIndex, settings Settings) ([]SizeGroup, hashRunStats, error) {
	defer VerboseEnter()()

	var stats hashRunStats
	var hashable []SizeGroup

	for _, group := range groups {
		if settings.CeilingBytes > 0 && group.Size > settings.CeilingBytes {
			VerboseLog(1, "Skipping %d files of size %s (too large)", len(group.Records), humanize.IBytes(group.Size))
			stats.Skipped = append(stats.Skipped, SkippedGroup{Size: group.Size, Count: len(group.Records)})
			for _, rec := range group.Records {
				idx.UpdateContext(rec.Path, OversizedContext)
			}
			continue
		}
		hashable = append(hashable, group)
		stats.Eligible += len(group.Records)
	}

	if stats.Eligible == 0 {
		return hashable, stats, nil
	}

	manager := newHashManager(settings.Workers, settings.Algorithm, settings.BufferSize, ctx.Done())

	var jobID uint64
	interrupted := false
submit:
	for _, group := range hashable {
		VerboseLog(2, "Hashing %d files of size %s", len(group.Records), humanize.IBytes(group.Size))
		for _, rec := range group.Records {
			jobID++
			if !manager.Submit(&hashJob{JobID: jobID, Record: rec}) {
				interrupted = true
				break submit
			}
		}
	}

	manager.Wait()

	if interrupted || ctx.Err() != nil {
		return nil, stats, fmt.Errorf("hashing interrupted: %w", ctx.Err())
	}

	stats.Hashed = int(manager.hashed.Load())
	stats.Failed = int(manager.failed.Load())

	for _, group := range hashable {
		for _, rec := range group.Records {
			if rec.HasDigest() {
				idx.UpdateContext(rec.Path, HashedContext)
			} else {
				idx.UpdateContext(rec.Path, FailedContext)
			}
		}
	}

	return hashable, stats, nil
}
