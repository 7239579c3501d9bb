// Package archive keeps a long-horizon aggregate of usage samples in
// SQLite. The JSON history file is the durable record but prunes at its
// retention window; the archive's 5-minute buckets stay cheap enough to
// keep for years, which is what the peak-pattern views are built on.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

const bucketMinutes = 5

// DB wraps the SQL database connection with archive-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New opens (creating if needed) the archive database at path.
func New(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure archive: %w", err)
	}
	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (db *DB) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_buckets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bucket_time DATETIME NOT NULL,
		five_hour_avg REAL DEFAULT 0,
		seven_day_avg REAL DEFAULT 0,
		sample_count INTEGER DEFAULT 1,
		year INTEGER GENERATED ALWAYS AS (CAST(strftime('%Y', bucket_time) AS INTEGER)) STORED,
		month INTEGER GENERATED ALWAYS AS (CAST(strftime('%m', bucket_time) AS INTEGER)) STORED,
		day_of_week INTEGER GENERATED ALWAYS AS (CAST(strftime('%w', bucket_time) AS INTEGER)) STORED,
		hour INTEGER GENERATED ALWAYS AS (CAST(strftime('%H', bucket_time) AS INTEGER)) STORED,
		UNIQUE(bucket_time)
	);
	CREATE INDEX IF NOT EXISTS idx_buckets_time ON usage_buckets(bucket_time);
	CREATE INDEX IF NOT EXISTS idx_buckets_dow_hour ON usage_buckets(day_of_week, hour);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Record folds a sample into its 5-minute bucket, merging averages.
func (db *DB) Record(at time.Time, fiveHour, sevenDay float64) error {
	bucket := at.UTC().Truncate(bucketMinutes * time.Minute)
	query := `
		INSERT INTO usage_buckets (bucket_time, five_hour_avg, seven_day_avg, sample_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(bucket_time) DO UPDATE SET
			five_hour_avg = (usage_buckets.five_hour_avg * usage_buckets.sample_count + excluded.five_hour_avg) / (usage_buckets.sample_count + 1),
			seven_day_avg = (usage_buckets.seven_day_avg * usage_buckets.sample_count + excluded.seven_day_avg) / (usage_buckets.sample_count + 1),
			sample_count = usage_buckets.sample_count + 1
	`
	if _, err := db.ExecContext(context.Background(), query, bucket, fiveHour, sevenDay); err != nil {
		return fmt.Errorf("failed to record usage bucket: %w", err)
	}
	return nil
}

// HourlyPattern is average usage for one hour-of-day slot.
type HourlyPattern struct {
	Hour        int
	FiveHourAvg float64
	SevenDayAvg float64
	Occurrences int
}

// WeekdayPattern is average usage for one day-of-week slot (0 = Sunday).
type WeekdayPattern struct {
	DayOfWeek   int
	FiveHourAvg float64
	SevenDayAvg float64
	Occurrences int
}

// HourlyPatterns returns usage averages grouped by hour of day.
func (db *DB) HourlyPatterns() ([]HourlyPattern, error) {
	query := `
		SELECT hour, AVG(five_hour_avg), AVG(seven_day_avg), COUNT(*)
		FROM usage_buckets
		GROUP BY hour
		ORDER BY hour
	`
	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []HourlyPattern
	for rows.Next() {
		var p HourlyPattern
		if err := rows.Scan(&p.Hour, &p.FiveHourAvg, &p.SevenDayAvg, &p.Occurrences); err != nil {
			return nil, fmt.Errorf("failed to scan hourly pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// WeekdayPatterns returns usage averages grouped by day of week.
func (db *DB) WeekdayPatterns() ([]WeekdayPattern, error) {
	query := `
		SELECT day_of_week, AVG(five_hour_avg), AVG(seven_day_avg), COUNT(*)
		FROM usage_buckets
		GROUP BY day_of_week
		ORDER BY day_of_week
	`
	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekday patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []WeekdayPattern
	for rows.Next() {
		var p WeekdayPattern
		if err := rows.Scan(&p.DayOfWeek, &p.FiveHourAvg, &p.SevenDayAvg, &p.Occurrences); err != nil {
			return nil, fmt.Errorf("failed to scan weekday pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// Series returns bucket averages for the last `days` days, oldest first.
func (db *DB) Series(days int) (times []time.Time, fiveHour, sevenDay []float64, err error) {
	query := `
		SELECT bucket_time, five_hour_avg, seven_day_avg
		FROM usage_buckets
		WHERE bucket_time >= datetime('now', ?)
		ORDER BY bucket_time
	`
	rows, err := db.QueryContext(context.Background(), query, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query bucket series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var at time.Time
		var fh, sd float64
		if err := rows.Scan(&at, &fh, &sd); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		times = append(times, at)
		fiveHour = append(fiveHour, fh)
		sevenDay = append(sevenDay, sd)
	}
	return times, fiveHour, sevenDay, rows.Err()
}

// PruneBefore removes buckets older than the cutoff and reports how many
// were dropped.
func (db *DB) PruneBefore(cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM usage_buckets WHERE bucket_time < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune archive: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}
