package danger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"safewalk/internal/geo"
	"safewalk/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx, so the
// store works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pinger is satisfied by *pgxpool.Pool and used for the health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PostgresStore is the database-backed Store. Unlike the FileStore it
// needs no process-level mutex: single-statement inserts are atomic at
// the database, which satisfies the Add/Clear concurrency contract.
type PostgresStore struct {
	db DBTX
	pg Pinger

	now func() time.Time
}

// NewPostgresStore creates a PostgresStore on the given connection. pinger
// may be nil when the caller does not register a health probe.
func NewPostgresStore(db DBTX, pinger Pinger) *PostgresStore {
	return &PostgresStore{
		db:  db,
		pg:  pinger,
		now: time.Now,
	}
}

// Add inserts a hazard report and returns the stored record.
func (s *PostgresStore) Add(ctx context.Context, lat, lng float64) (*types.DangerPoint, error) {
	point := types.DangerPoint{
		ID:        uuid.NewString(),
		Lat:       geo.RoundCoord(lat),
		Lng:       geo.RoundCoord(lng),
		Timestamp: s.now(),
		Label:     types.DangerPointLabel,
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO danger_points (id, lat, lng, reported_at, label)
		 VALUES ($1, $2, $3, $4, $5)`,
		point.ID, point.Lat, point.Lng, point.Timestamp, point.Label,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "inserting hazard report failed", err)
	}
	return &point, nil
}

// List returns all hazard reports in insertion order.
func (s *PostgresStore) List(ctx context.Context) ([]types.DangerPoint, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, lat, lng, reported_at, label
		 FROM danger_points
		 ORDER BY reported_at, id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "listing hazard reports failed", err)
	}
	defer rows.Close()

	points := []types.DangerPoint{}
	for rows.Next() {
		var p types.DangerPoint
		if err := rows.Scan(&p.ID, &p.Lat, &p.Lng, &p.Timestamp, &p.Label); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalStore, "scanning hazard report failed", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "iterating hazard reports failed", err)
	}
	return points, nil
}

// Clear wipes all hazard reports.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM danger_points`); err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "clearing hazard reports failed", err)
	}
	return nil
}

// Ping implements the health probe check against the connection pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pg == nil {
		return nil
	}
	return s.pg.Ping(ctx)
}
