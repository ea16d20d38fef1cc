package ingest

import (
	"bufio"
	"context"
	"os"
	"strings"

	"siphon/internal/discovery"
	"siphon/internal/envelope"
	"siphon/internal/logging"
	"siphon/internal/quarantine"
	"siphon/internal/store"
)

// scannerBufferSize accommodates oversized metric payloads on a single line.
const scannerBufferSize = 1 << 20

// fileResult is the outcome of one file. An aborted file has no manifest
// entry and its rows were rolled back; it will be retried on the next run.
type fileResult struct {
	inserted    int
	duplicates  int
	quarantined int
	aborted     bool
}

func (e *Engine) processFile(ctx context.Context, file discovery.FoundFile, opts Options, validator envelope.Validator, qwriter *quarantine.Writer) fileResult {
	logger := e.logger.With(logging.String("file", file.Path))

	handle, err := os.Open(file.Path)
	if err != nil {
		logger.Error("open spool file", logging.Args(logging.Error(err))...)
		return fileResult{aborted: true}
	}
	defer handle.Close()

	day := e.now().UTC()

	var (
		rows        []envelope.Row
		quarantined int
		lineNo      int
	)

	scanner := bufio.NewScanner(handle)
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBufferSize)
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		result := validator.Validate(line)
		if !result.OK() {
			quarantined++
			if !opts.DryRun {
				if qerr := qwriter.Record(day, file.Path, lineNo, string(line), result.Reason); qerr != nil {
					logger.Error("write quarantine record", logging.Args(logging.Error(qerr))...)
					return fileResult{quarantined: quarantined, aborted: true}
				}
			}
			continue
		}
		rows = append(rows, envelope.Flatten(result.Envelope, file.Path, lineNo))
	}
	if err := scanner.Err(); err != nil {
		logger.Error("read spool file", logging.Args(logging.Error(err))...)
		return fileResult{quarantined: quarantined, aborted: true}
	}

	if opts.DryRun {
		logger.Info("dry run: file validated",
			logging.Args(
				logging.Int("valid", len(rows)),
				logging.Int("rejected", quarantined),
			)...)
		return fileResult{inserted: len(rows), quarantined: quarantined}
	}

	entry := store.ManifestEntry{
		FilePath:      file.Path,
		FileMtime:     file.Mtime,
		FileSize:      file.Size,
		IngestedAtUTC: e.now().UTC(),
		EventCount:    len(rows),
		ErrorCount:    quarantined,
	}
	commit, err := e.store.CommitFile(ctx, rows, entry)
	if err != nil {
		logger.Error("commit file", logging.Args(logging.Error(err))...)
		return fileResult{quarantined: quarantined, aborted: true}
	}

	logger.Info("file ingested",
		logging.Args(
			logging.Int("inserted", commit.Inserted),
			logging.Int("duplicates", commit.Duplicates),
			logging.Int("quarantined", quarantined),
		)...)
	return fileResult{
		inserted:    commit.Inserted,
		duplicates:  commit.Duplicates,
		quarantined: quarantined,
	}
}
