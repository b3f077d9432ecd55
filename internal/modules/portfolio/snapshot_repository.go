package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRepository persists the last reconciled view so the dashboard can
// still show positions when the broker feed is unreachable. Stale data beats
// no data, and the snapshot timestamp makes staleness visible.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates the repository and ensures its schema exists.
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) (*SnapshotRepository, error) {
	r := &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "portfolio_snapshot").Logger(),
	}
	if err := r.initSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SnapshotRepository) initSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS reconciliation_snapshots (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			created_at INTEGER NOT NULL,
			payload    BLOB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation_snapshots table: %w", err)
	}
	return nil
}

// Save stores the reconciled aggregates, replacing any previous snapshot.
func (r *SnapshotRepository) Save(aggregates []AggregatePosition) error {
	payload, err := msgpack.Marshal(aggregates)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO reconciliation_snapshots (id, created_at, payload)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, payload = excluded.payload
	`, time.Now().Unix(), payload)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	r.log.Debug().Int("positions", len(aggregates)).Msg("Stored reconciliation snapshot")
	return nil
}

// Load returns the stored aggregates and when they were captured.
// sql.ErrNoRows is returned when no snapshot has been stored yet.
func (r *SnapshotRepository) Load() ([]AggregatePosition, time.Time, error) {
	var (
		createdAt int64
		payload   []byte
	)
	err := r.db.QueryRow(`SELECT created_at, payload FROM reconciliation_snapshots WHERE id = 1`).
		Scan(&createdAt, &payload)
	if err != nil {
		return nil, time.Time{}, err
	}

	var aggregates []AggregatePosition
	if err := msgpack.Unmarshal(payload, &aggregates); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return aggregates, time.Unix(createdAt, 0).UTC(), nil
}
