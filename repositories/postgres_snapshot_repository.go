package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/court-flow/models"
	"github.com/lib/pq"
)

const (
	locationQueue = "queue"
	locationReady = "ready"
	locationCourt = "court"
)

// SQLExecutor позволяет выполнять запросы как через *sql.DB, так и внутри *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type postgresSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &postgresSnapshotRepository{db: db}
}

func (r *postgresSnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	var savedAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT saved_at FROM board_meta WHERE id = 1`).Scan(&savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, handlePostgresError("load board meta", err)
	}

	courts, courtIndex, err := r.loadCourts(ctx, r.db)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		Courts:     courts,
		Queue:      []models.Player{},
		ReadyGroup: []models.Player{},
	}

	query := `
		SELECT id, display_name, avatar_url, check_in_time, status, location, court_id
		FROM board_players
		ORDER BY location, position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, handlePostgresError("load board players", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p        models.Player
			location string
			courtID  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.AvatarURL, &p.CheckInTime, &p.Status, &location, &courtID); err != nil {
			return nil, fmt.Errorf("%w: failed to scan board player: %v", ErrSnapshotCorrupt, err)
		}

		switch location {
		case locationQueue:
			snapshot.Queue = append(snapshot.Queue, p)
		case locationReady:
			snapshot.ReadyGroup = append(snapshot.ReadyGroup, p)
		case locationCourt:
			idx, ok := courtIndex[courtID.String]
			if !courtID.Valid || !ok {
				return nil, fmt.Errorf("%w: player %s references unknown court %q", ErrSnapshotCorrupt, p.ID, courtID.String)
			}
			snapshot.Courts[idx].Players = append(snapshot.Courts[idx].Players, p)
		default:
			return nil, fmt.Errorf("%w: player %s has unknown location %q", ErrSnapshotCorrupt, p.ID, location)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("iterate board players", err)
	}

	return snapshot, nil
}

func (r *postgresSnapshotRepository) loadCourts(ctx context.Context, exec SQLExecutor) ([]models.Court, map[string]int, error) {
	query := `
		SELECT id, name, status, match_start_time
		FROM courts
		ORDER BY position`
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, handlePostgresError("load courts", err)
	}
	defer rows.Close()

	courts := make([]models.Court, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			c     models.Court
			start sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &start); err != nil {
			return nil, nil, fmt.Errorf("%w: failed to scan court: %v", ErrSnapshotCorrupt, err)
		}
		if start.Valid {
			t := start.Time
			c.MatchStartTime = &t
		}
		c.Players = []models.Player{}
		index[c.ID] = len(courts)
		courts = append(courts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, handlePostgresError("iterate courts", err)
	}
	return courts, index, nil
}

// Save replaces the whole stored board in one transaction.
func (r *postgresSnapshotRepository) Save(ctx context.Context, snapshot *models.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			if cErr := tx.Commit(); cErr != nil {
				err = fmt.Errorf("failed to commit snapshot transaction: %w", cErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM board_players`); err != nil {
		return handlePostgresError("clear board players", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM courts`); err != nil {
		return handlePostgresError("clear courts", err)
	}

	for pos, c := range snapshot.Courts {
		var start interface{}
		if c.MatchStartTime != nil {
			start = *c.MatchStartTime
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO courts (id, position, name, status, match_start_time) VALUES ($1, $2, $3, $4, $5)`,
			c.ID, pos, c.Name, c.Status, start,
		)
		if err != nil {
			return handlePostgresError(fmt.Sprintf("insert court %s", c.ID), err)
		}
		for i, p := range c.Players {
			if err = insertPlayer(ctx, tx, p, locationCourt, c.ID, i); err != nil {
				return err
			}
		}
	}
	for i, p := range snapshot.Queue {
		if err = insertPlayer(ctx, tx, p, locationQueue, "", i); err != nil {
			return err
		}
	}
	for i, p := range snapshot.ReadyGroup {
		if err = insertPlayer(ctx, tx, p, locationReady, "", i); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO board_meta (id, saved_at) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at`,
		time.Now().UTC(),
	)
	if err != nil {
		return handlePostgresError("update board meta", err)
	}
	return nil
}

func insertPlayer(ctx context.Context, exec SQLExecutor, p models.Player, location, courtID string, position int) error {
	var court interface{}
	if courtID != "" {
		court = courtID
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO board_players (id, display_name, avatar_url, check_in_time, status, location, court_id, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.DisplayName, p.AvatarURL, p.CheckInTime, p.Status, location, court, position,
	)
	if err != nil {
		return handlePostgresError(fmt.Sprintf("insert player %s", p.ID), err)
	}
	return nil
}

func handlePostgresError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("failed to %s (postgres %s): %w", op, pqErr.Code.Name(), err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
