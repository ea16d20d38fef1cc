// Package doctor runs health checks against an ingested warehouse. Each
// check is advisory and independent; the caller maps the worst observed
// status to a process exit code.
package doctor

import (
	"context"
	"fmt"
	"time"

	"siphon/internal/store"
)

// Status is a check verdict, ordered by severity.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// CheckResult is one check's verdict with operator-facing context.
type CheckResult struct {
	Name    string
	Status  Status
	Message string
	Hint    string
}

// Thresholds for the built-in checks.
const (
	freshnessWarnAfter = 48 * time.Hour
	freshnessFailAfter = 96 * time.Hour
	volumeWindow       = 24 * time.Hour
	errorRateWarnPct   = 1.0
	errorRateFailPct   = 5.0
)

// ErrUnknownCheck is returned when the requested check name does not exist.
var ErrUnknownCheck = fmt.Errorf("unknown check")

type check struct {
	name string
	run  func(ctx context.Context, st *store.Store, now time.Time) CheckResult
}

// checks run in a fixed order so report output is stable.
var checks = []check{
	{"freshness", checkFreshness},
	{"volume", checkVolume},
	{"error_rate", checkErrorRate},
	{"schema_versions", checkSchemaVersions},
}

// Names lists the available check names in report order.
func Names() []string {
	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.name
	}
	return names
}

// Run executes the health checks. When only is non-empty just that check
// runs; an unknown name returns ErrUnknownCheck.
func Run(ctx context.Context, st *store.Store, now time.Time, only string) ([]CheckResult, error) {
	var results []CheckResult
	matched := false
	for _, c := range checks {
		if only != "" && c.name != only {
			continue
		}
		matched = true
		results = append(results, c.run(ctx, st, now))
	}
	if only != "" && !matched {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, only)
	}
	return results, nil
}

// Worst returns the most severe status across results.
func Worst(results []CheckResult) Status {
	worst := StatusPass
	for _, r := range results {
		if r.Status > worst {
			worst = r.Status
		}
	}
	return worst
}

func checkFreshness(ctx context.Context, st *store.Store, now time.Time) CheckResult {
	result := CheckResult{Name: "freshness"}

	latest, ok, err := st.LatestEventTime(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("query failed: %v", err)
		return result
	}
	if !ok {
		result.Status = StatusFail
		result.Message = "no events ingested yet"
		result.Hint = "run `siphon ingest` against a populated spool"
		return result
	}

	age := now.Sub(latest)
	result.Message = fmt.Sprintf("latest event is %s old", age.Round(time.Minute))
	switch {
	case age <= freshnessWarnAfter:
		result.Status = StatusPass
	case age <= freshnessFailAfter:
		result.Status = StatusWarn
		result.Hint = "check that collectors are still shipping spool files"
	default:
		result.Status = StatusFail
		result.Hint = "ingestion has stalled; check the scheduler and the spool mount"
	}
	return result
}

func checkVolume(ctx context.Context, st *store.Store, now time.Time) CheckResult {
	result := CheckResult{Name: "volume"}

	count, err := st.EventCountSince(ctx, now.Add(-volumeWindow))
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("query failed: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d events in the last 24h", count)
	if count == 0 {
		result.Status = StatusWarn
		result.Hint = "zero recent events can be normal on weekends; verify producers otherwise"
	}
	return result
}

func checkErrorRate(ctx context.Context, st *store.Store, _ time.Time) CheckResult {
	result := CheckResult{Name: "error_rate"}

	totals, err := st.ManifestSummary(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("query failed: %v", err)
		return result
	}

	processed := totals.EventCount + totals.ErrorCount
	if processed == 0 {
		result.Message = "no files ingested yet"
		return result
	}

	pct := 100 * float64(totals.ErrorCount) / float64(processed)
	result.Message = fmt.Sprintf("%.2f%% of lines quarantined across %d files", pct, totals.Files)
	switch {
	case pct >= errorRateFailPct:
		result.Status = StatusFail
		result.Hint = "inspect recent quarantine partitions for a common rejection reason"
	case pct >= errorRateWarnPct:
		result.Status = StatusWarn
		result.Hint = "quarantine volume is creeping up; check for a misbehaving producer"
	}
	return result
}

func checkSchemaVersions(ctx context.Context, st *store.Store, _ time.Time) CheckResult {
	result := CheckResult{Name: "schema_versions"}

	versions, err := st.SchemaVersions(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("query failed: %v", err)
		return result
	}
	if len(versions) == 0 {
		result.Message = "no events ingested yet"
		return result
	}

	if len(versions) > 1 {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%d schema versions present", len(versions))
		result.Hint = "mixed versions are expected mid-rollout; investigate if it persists"
		return result
	}
	for version := range versions {
		result.Message = fmt.Sprintf("all events on schema %s", version)
	}
	return result
}
