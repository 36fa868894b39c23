// Package postgres persists district readings with duplicate-safe
// semantics: batches land in a staging table and are merged into the
// permanent table with a conflict-skipping insert-select.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/smogwatch/smog-ingest/internal/domain"
)

// Store wraps the relational destination for district readings.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Connect opens and verifies a Postgres connection.
func Connect(databaseURL string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports connectivity, used by the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the permanent and staging tables if absent. The
// composite primary key on (timestamp, district) is what enforces
// at-most-once ingestion per district per hour; the application takes no
// locks of its own.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS smog_metrics (
		timestamp            TIMESTAMPTZ      NOT NULL,
		district             TEXT             NOT NULL,
		pm2_5                DOUBLE PRECISION,
		pm10                 DOUBLE PRECISION,
		wind_speed           DOUBLE PRECISION NOT NULL,
		wind_dir             DOUBLE PRECISION NOT NULL,
		provincial_fire_load DOUBLE PRECISION NOT NULL,
		local_fire_count     INTEGER          NOT NULL,
		local_fire_frp       DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (timestamp, district)
	);

	CREATE TABLE IF NOT EXISTS smog_staging (
		timestamp            TIMESTAMPTZ      NOT NULL,
		district             TEXT             NOT NULL,
		pm2_5                DOUBLE PRECISION,
		pm10                 DOUBLE PRECISION,
		wind_speed           DOUBLE PRECISION NOT NULL,
		wind_dir             DOUBLE PRECISION NOT NULL,
		provincial_fire_load DOUBLE PRECISION NOT NULL,
		local_fire_count     INTEGER          NOT NULL,
		local_fire_frp       DOUBLE PRECISION NOT NULL
	);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const readingColumns = "timestamp, district, pm2_5, pm10, wind_speed, wind_dir, provincial_fire_load, local_fire_count, local_fire_frp"

// MergeBatch writes one cycle's batch through the idempotent staging+merge
// protocol inside a single transaction: replace the staging contents,
// bulk-insert the batch, then insert-select into the permanent table
// skipping any (timestamp, district) key that already exists. Returns the
// number of rows actually merged; duplicates from overlapping runs within
// the same hour count as zero.
func (s *Store) MergeBatch(ctx context.Context, readings []domain.Reading) (int64, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin merge tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Staging may hold leftovers from a previous failed run.
	if _, err := tx.ExecContext(ctx, "TRUNCATE smog_staging"); err != nil {
		return 0, fmt.Errorf("truncate staging: %w", err)
	}

	if err := stageBatch(ctx, tx, readings); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO smog_metrics (`+readingColumns+`)
		SELECT `+readingColumns+`
		FROM smog_staging
		ON CONFLICT (timestamp, district) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("merge staging: %w", err)
	}

	merged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("merge rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit merge: %w", err)
	}

	s.logger.Info("batch merged", "staged", len(readings), "merged", merged)
	return merged, nil
}

// stageBatch bulk-inserts the batch into smog_staging with one multi-row
// statement, avoiding a round trip per district.
func stageBatch(ctx context.Context, tx *sql.Tx, readings []domain.Reading) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO smog_staging (" + readingColumns + ") VALUES ")

	args := make([]any, 0, len(readings)*9)
	for i, r := range readings {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 9
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args,
			r.Timestamp, r.District, nullable(r.PM25), nullable(r.PM10),
			r.WindSpeedKmh, r.WindDirectionDeg,
			r.ProvincialFireLoadMW, r.LocalFireCount, r.LocalFireIntensityMW)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("stage batch: %w", err)
	}
	return nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// ReadRange returns readings within [from, to) ordered by timestamp
// descending, the contract the analytical consumer depends on. An empty
// district matches all districts.
func (s *Store) ReadRange(ctx context.Context, district string, from, to time.Time) ([]domain.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM smog_metrics
		WHERE timestamp >= $1 AND timestamp < $2
		  AND ($3 = '' OR district = $3)
		ORDER BY timestamp DESC, district`

	rows, err := s.db.QueryContext(ctx, query, from, to, district)
	if err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// Recent returns the most recent readings across all districts, newest
// first, capped at limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Reading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM smog_metrics
		ORDER BY timestamp DESC, district
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("read recent: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]domain.Reading, error) {
	var readings []domain.Reading
	for rows.Next() {
		var (
			r          domain.Reading
			pm25, pm10 sql.NullFloat64
		)
		if err := rows.Scan(
			&r.Timestamp, &r.District, &pm25, &pm10,
			&r.WindSpeedKmh, &r.WindDirectionDeg,
			&r.ProvincialFireLoadMW, &r.LocalFireCount, &r.LocalFireIntensityMW,
		); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		if pm25.Valid {
			r.PM25 = &pm25.Float64
		}
		if pm10.Valid {
			r.PM10 = &pm10.Float64
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, nil
}
