package audit

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/keyxmakerx/courier/internal/apperror"
	"github.com/keyxmakerx/courier/internal/mask"
)

// Service handles business logic for the audit log. Record is designed for
// fire-and-forget use: the caller may ignore the returned error because the
// failure has already been logged to the local diagnostic channel (slog).
type Service interface {
	// Record masks secrets in data and appends an entry to the day bucket
	// and recent list. Never panics; never blocks the primary operation.
	Record(ctx context.Context, eventType string, data map[string]any) error

	// RecordWithRequestID is Record with an explicit request correlation ID.
	RecordWithRequestID(ctx context.Context, requestID, eventType string, data map[string]any) error

	// Recent returns up to limit entries from the capped recent list.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Day returns all entries for a UTC date ("2026-08-30").
	Day(ctx context.Context, date string) ([]Entry, error)

	// Cleanup deletes day buckets older than yesterday (UTC) and records a
	// log_cleanup entry. Returns the deleted bucket keys.
	Cleanup(ctx context.Context) ([]string, error)
}

// service implements Service.
type service struct {
	repo LogRepository

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates a new audit service with the given repository.
func NewService(repo LogRepository) Service {
	return &service{repo: repo, now: time.Now}
}

// Record masks and persists an audit entry. Failures are slog-warned and
// returned, but the contract is that callers may drop the error: the audit
// trail is best-effort and must never take down a send.
func (s *service) Record(ctx context.Context, eventType string, data map[string]any) error {
	return s.RecordWithRequestID(ctx, "", eventType, data)
}

// RecordWithRequestID masks and persists an audit entry tagged with a
// request correlation ID.
func (s *service) RecordWithRequestID(ctx context.Context, requestID, eventType string, data map[string]any) error {
	if eventType == "" {
		return apperror.NewBadRequest("event type is required for audit entry")
	}

	entry := &Entry{
		Timestamp: s.now().UTC(),
		Type:      eventType,
		RequestID: requestID,
		Data:      maskData(data),
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		slog.Warn("failed to write audit log entry",
			slog.String("event", eventType),
			slog.String("request_id", requestID),
			slog.Any("error", err),
		)
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}

	return nil
}

// Recent returns the newest entries from the capped recent list.
func (s *service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing recent log entries: %w", err))
	}
	return entries, nil
}

// dayPattern validates the date path parameter before it reaches Redis.
var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Day returns all entries from one day bucket.
func (s *service) Day(ctx context.Context, date string) ([]Entry, error) {
	if !dayPattern.MatchString(date) {
		return nil, apperror.NewBadRequest("date must be YYYY-MM-DD")
	}

	entries, err := s.repo.ListDay(ctx, date)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing log bucket %s: %w", date, err))
	}
	return entries, nil
}

// Cleanup deletes day buckets older than yesterday and records the action.
// Today's and yesterday's buckets are always retained.
func (s *service) Cleanup(ctx context.Context) ([]string, error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -1).Format(dayKeyFormat)

	deleted, err := s.repo.DeleteBucketsBefore(ctx, cutoff)
	if err != nil {
		return deleted, apperror.NewInternal(fmt.Errorf("cleaning up log buckets: %w", err))
	}

	// Best-effort record of the cleanup itself.
	_ = s.Record(ctx, EventLogCleanup, map[string]any{
		"deletedKeys":   deleted,
		"retainedDates": []string{cutoff, now.Format(dayKeyFormat)},
	})

	slog.Info("log cleanup completed", slog.Int("deleted_buckets", len(deleted)))
	return deleted, nil
}

// maskData returns a copy of data with deny-listed fields masked. Nested
// maps (e.g. before/after settings snapshots) are masked recursively. The
// input map is never mutated -- callers may keep using it.
func maskData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	out := make(map[string]any, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case map[string]any:
			out[key] = maskData(v)
		case string:
			if denyList[strings.ToLower(key)] {
				out[key] = mask.Secret(v)
			} else {
				out[key] = v
			}
		default:
			out[key] = value
		}
	}
	return out
}
