package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dayKeyPrefix is the namespace for per-day log buckets ("logs:2026-08-30").
const dayKeyPrefix = "logs:"

// recentKey holds the capped most-recent-entries list, independent of the
// day buckets.
const recentKey = "logs:recent"

// recentMax caps the recent list. The trim keeps the last N pushed entries
// (LTRIM -N -1), not the N newest by timestamp -- out-of-order pushes are
// kept in push order.
const recentMax = 100

// dayKeyFormat is the UTC date layout used in bucket keys.
const dayKeyFormat = "2006-01-02"

// LogRepository defines the storage contract for audit entries.
// All Redis specifics live in the concrete implementation.
type LogRepository interface {
	// Append pushes the entry onto today's bucket and the recent list,
	// trimming the recent list to its cap.
	Append(ctx context.Context, entry *Entry) error

	// ListRecent returns up to limit entries from the recent list, newest
	// last (push order).
	ListRecent(ctx context.Context, limit int) ([]Entry, error)

	// ListDay returns all entries in the bucket for the given UTC date.
	ListDay(ctx context.Context, date string) ([]Entry, error)

	// DeleteBucketsBefore removes every day bucket whose date sorts below
	// cutoff (YYYY-MM-DD). The recent list is never touched. Returns the
	// deleted keys.
	DeleteBucketsBefore(ctx context.Context, cutoff string) ([]string, error)
}

// logRepository implements LogRepository with Redis lists.
type logRepository struct {
	rdb *redis.Client
}

// NewLogRepository creates a new repository backed by the given Redis client.
func NewLogRepository(rdb *redis.Client) LogRepository {
	return &logRepository{rdb: rdb}
}

// DayKey returns the bucket key for a timestamp (UTC date).
func DayKey(t time.Time) string {
	return dayKeyPrefix + t.UTC().Format(dayKeyFormat)
}

// Append pushes the serialized entry onto the day bucket and recent list.
// The three commands are pipelined; a partial failure surfaces as an error
// and the service treats it as a lost entry.
func (r *logRepository) Append(ctx context.Context, entry *Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	pipe := r.rdb.Pipeline()
	pipe.RPush(ctx, DayKey(entry.Timestamp), payload)
	pipe.RPush(ctx, recentKey, payload)
	pipe.LTrim(ctx, recentKey, -recentMax, -1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the last entries pushed onto the recent list.
func (r *logRepository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > recentMax {
		limit = recentMax
	}

	raw, err := r.rdb.LRange(ctx, recentKey, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading recent log entries: %w", err)
	}
	return decodeEntries(raw)
}

// ListDay returns every entry in the given day bucket.
func (r *logRepository) ListDay(ctx context.Context, date string) ([]Entry, error) {
	raw, err := r.rdb.LRange(ctx, dayKeyPrefix+date, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading log bucket %s: %w", date, err)
	}
	return decodeEntries(raw)
}

// DeleteBucketsBefore scans for day buckets older than cutoff and deletes
// them. Uses SCAN rather than KEYS so a large keyspace doesn't block Redis.
func (r *logRepository) DeleteBucketsBefore(ctx context.Context, cutoff string) ([]string, error) {
	var deleted []string

	iter := r.rdb.Scan(ctx, 0, dayKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if key == recentKey {
			continue
		}

		date := key[len(dayKeyPrefix):]
		// Bucket dates are zero-padded ISO dates, so string order is date order.
		if date >= cutoff {
			continue
		}

		if err := r.rdb.Del(ctx, key).Err(); err != nil {
			return deleted, fmt.Errorf("deleting log bucket %s: %w", key, err)
		}
		deleted = append(deleted, key)
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scanning log buckets: %w", err)
	}

	return deleted, nil
}

// decodeEntries unmarshals raw list values. A corrupt entry is kept as a
// placeholder instead of breaking the whole read.
func decodeEntries(raw []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			entries = append(entries, Entry{
				Type: "unparseable",
				Data: map[string]any{"_parse_error": "invalid JSON"},
			})
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
