package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"siphon/internal/config"
	"siphon/internal/discovery"
	"siphon/internal/envelope"
	"siphon/internal/logging"
	"siphon/internal/quarantine"
	"siphon/internal/runlock"
	"siphon/internal/store"
)

// ErrFilesAborted is returned when one or more files failed mid-run. The run
// itself completes (failure is isolated per file) but the exit status must be
// non-zero so a scheduler can alert.
var ErrFilesAborted = errors.New("one or more files aborted")

// ErrInvalidDateRange rejects a backfill whose start date is after its end.
var ErrInvalidDateRange = errors.New("backfill start date is after end date")

// DateRange is an inclusive calendar-day window evaluated against file mtime
// in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	day := t.UTC()
	return !day.Before(r.Start) && day.Before(r.End.AddDate(0, 0, 1))
}

// Options selects the behaviour of one run.
type Options struct {
	// DryRun discovers and validates but commits nothing: no canonical rows,
	// no manifest entries, no quarantine records.
	DryRun bool
	// Limit bounds the number of files processed this run; 0 means no limit.
	Limit int
	// Force bypasses the manifest lookup entirely and re-ingests everything.
	Force bool
	// Backfill restricts candidates to files whose mtime falls in the range
	// and bypasses the manifest skip for them (a scoped force).
	Backfill *DateRange
}

// Summary aggregates one run's outcome.
type Summary struct {
	FilesProcessed    int
	FilesSkipped      int
	FilesAborted      int
	EventsIngested    int
	EventsDuplicate   int
	EventsQuarantined int
}

// Engine coordinates ingestion runs over one data root.
type Engine struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	// now is overridable for tests; defaults to time.Now.
	now func() time.Time
	// lockOptions is overridable for tests (liveness stubs).
	lockOptions []runlock.Option
}

// New constructs an engine.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  st,
		logger: logging.NewComponentLogger(logger, "ingest"),
		now:    time.Now,
	}
}

// Run executes one ingestion run and returns its summary. The run lock is
// held for the duration and released on every exit path; a second concurrent
// run fails fast with runlock.ErrLockHeld and ingests nothing.
func (e *Engine) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Backfill != nil && opts.Backfill.Start.After(opts.Backfill.End) {
		return Summary{}, ErrInvalidDateRange
	}

	// Store unavailability is run-fatal before any file is touched.
	if err := e.store.Ping(ctx); err != nil {
		return Summary{}, err
	}

	lock, err := runlock.Acquire(e.cfg.StateDir(), e.lockOptions...)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			e.logger.Warn("failed to release run lock", logging.Args(logging.Error(releaseErr))...)
		}
	}()

	now := e.now().UTC()
	files, err := discovery.Discover(e.cfg.Paths.RawRoot, now, e.cfg.SettleWindow())
	if err != nil {
		return Summary{}, fmt.Errorf("discover spool files: %w", err)
	}

	eligible, skipped, err := e.filterCandidates(ctx, files, opts)
	if err != nil {
		return Summary{}, err
	}
	if opts.Limit > 0 && len(eligible) > opts.Limit {
		eligible = eligible[:opts.Limit]
	}

	e.logger.Info("run started",
		logging.Args(
			logging.Int("candidates", len(files)),
			logging.Int("eligible", len(eligible)),
			logging.Int("already_ingested", skipped),
			logging.Bool("dry_run", opts.DryRun),
		)...)

	summary := Summary{FilesSkipped: skipped}
	e.processFiles(ctx, eligible, opts, &summary)

	e.logger.Info("run finished",
		logging.Args(
			logging.Int("files_processed", summary.FilesProcessed),
			logging.Int("files_skipped", summary.FilesSkipped),
			logging.Int("files_aborted", summary.FilesAborted),
			logging.Int("events_ingested", summary.EventsIngested),
			logging.Int("events_duplicate", summary.EventsDuplicate),
			logging.Int("events_quarantined", summary.EventsQuarantined),
		)...)

	if summary.FilesAborted > 0 {
		return summary, fmt.Errorf("%w: %d of %d", ErrFilesAborted, summary.FilesAborted, summary.FilesAborted+summary.FilesProcessed)
	}
	return summary, nil
}

// filterCandidates applies backfill-range and manifest filtering.
func (e *Engine) filterCandidates(ctx context.Context, files []discovery.FoundFile, opts Options) ([]discovery.FoundFile, int, error) {
	var eligible []discovery.FoundFile
	skipped := 0

	for _, file := range files {
		if opts.Backfill != nil && !opts.Backfill.Contains(file.Mtime) {
			continue
		}
		// Force and backfill both bypass the already-ingested skip.
		if !opts.Force && opts.Backfill == nil {
			entry, err := e.store.LookupManifest(ctx, file.Path)
			if err != nil {
				return nil, 0, err
			}
			if entry.Matches(file.Mtime, file.Size) {
				skipped++
				continue
			}
		}
		eligible = append(eligible, file)
	}
	return eligible, skipped, nil
}

// processFiles runs the per-file state machine across the worker pool.
func (e *Engine) processFiles(ctx context.Context, files []discovery.FoundFile, opts Options, summary *Summary) {
	if len(files) == 0 {
		return
	}

	qwriter := quarantine.NewWriter(e.cfg.QuarantineDir(), e.cfg.Ingest.QuarantineMaxPerDay, e.logger)
	validator := envelope.Validator{SkewTolerance: e.cfg.ClockSkewTolerance(), Now: e.now}

	workers := e.cfg.Ingest.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan discovery.FoundFile)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for file := range jobs {
				result := e.processFile(ctx, file, opts, validator, qwriter)

				mu.Lock()
				summary.EventsQuarantined += result.quarantined
				if result.aborted {
					summary.FilesAborted++
				} else {
					summary.FilesProcessed++
					summary.EventsIngested += result.inserted
					summary.EventsDuplicate += result.duplicates
				}
				mu.Unlock()
			}
		}()
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)
	wg.Wait()
}
