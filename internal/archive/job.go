// Package archive implements the audit retention job: relocating records older
// than the configured horizon from the live audit table into the archive table.
// The job is triggered over HTTP (manual admin action or external cron); the
// API runs no in-process scheduler.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/yefosr/cms-backend/internal/audit"
	"github.com/yefosr/cms-backend/internal/metrics"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
)

// DefaultRetentionDays applies when the retention setting is missing or unparseable.
const DefaultRetentionDays = 90

// Runner executes one archival pass per call. It does not retry; retries are
// the caller's (external scheduler's) concern.
type Runner struct {
	audits   *repo.AuditRepo
	settings *repo.SettingRepo
	logger   *audit.Logger
	log      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewRunner returns a Runner over the given stores.
func NewRunner(audits *repo.AuditRepo, settings *repo.SettingRepo, logger *audit.Logger, log *slog.Logger) *Runner {
	return &Runner{
		audits:   audits,
		settings: settings,
		logger:   logger,
		log:      log,
		now:      time.Now,
	}
}

// Result reports one archival run.
type Result struct {
	ArchivedCount int64     `json:"archived_count"`
	CutoffDate    time.Time `json:"cutoff_date"`
}

// Run performs one archival pass: read the retention setting (default 90),
// ensure the archive table exists, move all records older than the cutoff,
// and write a system audit record documenting the run. Any failure before the
// move completes is returned with no partial-success count; the trailing
// self-record write is best-effort and never fails the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	days := r.retentionDays(ctx)
	cutoff := r.now().AddDate(0, 0, -days)

	if err := r.audits.EnsureArchiveTable(ctx); err != nil {
		metrics.RecordArchiveRun("error", 0)
		return Result{}, fmt.Errorf("ensure archive table: %w", err)
	}

	moved, err := r.audits.ArchiveBefore(ctx, cutoff)
	if err != nil {
		metrics.RecordArchiveRun("error", 0)
		return Result{}, fmt.Errorf("archive records before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	res := Result{ArchivedCount: moved, CutoffDate: cutoff}
	r.selfRecord(ctx, res)

	metrics.RecordArchiveRun("ok", moved)
	r.log.Info("audit archival run complete",
		"archived_count", moved,
		"cutoff_date", cutoff.Format(time.RFC3339),
		"retention_days", days)
	return res, nil
}

// retentionDays reads the retention setting, falling back to the default when
// the row is missing or not a positive integer.
func (r *Runner) retentionDays(ctx context.Context) int {
	value, err := r.settings.Get(ctx, repo.SettingKeyAuditRetention)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log.Warn("failed to read retention setting, using default",
				"default_days", DefaultRetentionDays, "error", err)
		}
		return DefaultRetentionDays
	}
	days, err := strconv.Atoi(value)
	if err != nil || days < 1 {
		r.log.Warn("unparseable retention setting, using default",
			"value", value, "default_days", DefaultRetentionDays)
		return DefaultRetentionDays
	}
	return days
}

// selfRecord documents the run in the audit log as a system action
// (no actor). Failure here is already swallowed by the audit logger.
func (r *Runner) selfRecord(ctx context.Context, res Result) {
	newData, err := json.Marshal(map[string]interface{}{
		"archived_count": res.ArchivedCount,
		"cutoff_date":    res.CutoffDate.Format(time.RFC3339),
	})
	if err != nil {
		r.log.Warn("failed to encode archive run summary", "error", err)
		return
	}
	r.logger.Record(ctx, nil, audit.Entry{
		AdminID:      nil,
		Action:       models.ActionArchive,
		ResourceType: models.ResourceAuditLog,
		NewData:      newData,
	})
}
