package opportunities

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/catalyst/internal/domain"
)

// Repository persists the latest ranked batch so the dashboard can serve it
// between discovery cycles and across restarts.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the repository and ensures its schema exists.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	r := &Repository{
		db:  db,
		log: log.With().Str("repo", "opportunities").Logger(),
	}
	if err := r.initSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) initSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS ranked_opportunities (
			cycle_id      TEXT NOT NULL,
			rank          INTEGER NOT NULL,
			ticker        TEXT NOT NULL,
			catalyst_type TEXT NOT NULL,
			event_date    TEXT NOT NULL,
			confidence    REAL NOT NULL,
			upside        REAL,
			downside      REAL,
			source        TEXT NOT NULL DEFAULT '',
			source_url    TEXT NOT NULL,
			headline      TEXT NOT NULL DEFAULT '',
			details       TEXT NOT NULL DEFAULT '{}',
			discovered_at TEXT NOT NULL,
			created_at    INTEGER NOT NULL,
			PRIMARY KEY (cycle_id, rank)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create ranked_opportunities table: %w", err)
	}
	return nil
}

// ReplaceBatch atomically replaces the stored batch with a newly ranked one.
// Rank positions follow the slice order.
func (r *Repository) ReplaceBatch(cycleID string, records []Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM ranked_opportunities"); err != nil {
		return fmt.Errorf("failed to clear previous batch: %w", err)
	}

	now := time.Now().Unix()
	stmt, err := tx.Prepare(`
		INSERT INTO ranked_opportunities
		(cycle_id, rank, ticker, catalyst_type, event_date, confidence,
		 upside, downside, source, source_url, headline, details,
		 discovered_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		detailsJSON, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("failed to encode details for %s: %w", rec.Ticker, err)
		}
		_, err = stmt.Exec(
			cycleID,
			i,
			rec.Ticker,
			rec.CatalystType,
			rec.EventDate.Format(time.RFC3339Nano),
			rec.ConfidenceScore,
			nullableFloat(rec.EstimatedUpside),
			nullableFloat(rec.EstimatedDownside),
			rec.Source,
			rec.SourceURL,
			rec.Headline,
			string(detailsJSON),
			rec.DiscoveredAt.Format(time.RFC3339Nano),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert opportunity %s: %w", rec.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	r.log.Debug().Str("cycle_id", cycleID).Int("records", len(records)).Msg("Stored ranked batch")
	return nil
}

// GetLatest returns the stored batch in rank order, with its cycle ID.
// An empty store yields an empty slice and cycle ID.
func (r *Repository) GetLatest() (string, []Record, error) {
	rows, err := r.db.Query(`
		SELECT cycle_id, ticker, catalyst_type, event_date, confidence,
		       upside, downside, source, source_url, headline, details, discovered_at
		FROM ranked_opportunities
		ORDER BY rank ASC
	`)
	if err != nil {
		return "", nil, fmt.Errorf("failed to query ranked opportunities: %w", err)
	}
	defer rows.Close()

	var cycleID string
	records := []Record{}
	for rows.Next() {
		var (
			eventDate    string
			discoveredAt string
			detailsJSON  string
			upside       sql.NullFloat64
			downside     sql.NullFloat64
			rec          Record
		)
		err := rows.Scan(&cycleID, &rec.Ticker, &rec.CatalystType, &eventDate,
			&rec.ConfidenceScore, &upside, &downside, &rec.Source, &rec.SourceURL,
			&rec.Headline, &detailsJSON, &discoveredAt)
		if err != nil {
			return "", nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}

		if rec.EventDate, err = time.Parse(time.RFC3339Nano, eventDate); err != nil {
			return "", nil, fmt.Errorf("failed to parse event_date for %s: %w", rec.Ticker, err)
		}
		if rec.DiscoveredAt, err = time.Parse(time.RFC3339Nano, discoveredAt); err != nil {
			return "", nil, fmt.Errorf("failed to parse discovered_at for %s: %w", rec.Ticker, err)
		}
		rec.Details = domain.NewMap()
		if err := json.Unmarshal([]byte(detailsJSON), rec.Details); err != nil {
			return "", nil, fmt.Errorf("failed to decode details for %s: %w", rec.Ticker, err)
		}
		if upside.Valid {
			v := upside.Float64
			rec.EstimatedUpside = &v
		}
		if downside.Valid {
			v := downside.Float64
			rec.EstimatedDownside = &v
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("error iterating ranked opportunities: %w", err)
	}

	return cycleID, records, nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
