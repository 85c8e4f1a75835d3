// Package store persists training episodes and their transitions in SQLite.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id           TEXT PRIMARY KEY,
	seed         INTEGER NOT NULL,
	reward       REAL    NOT NULL,
	steps        INTEGER NOT NULL,
	showdown     INTEGER NOT NULL,
	pot          INTEGER NOT NULL DEFAULT 0,
	agent_dealer INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transitions (
	episode_id TEXT    NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
	step       INTEGER NOT NULL,
	obs        TEXT    NOT NULL,
	action     REAL    NOT NULL,
	reward     REAL    NOT NULL,
	next_obs   TEXT    NOT NULL,
	done       INTEGER NOT NULL,
	PRIMARY KEY (episode_id, step)
);
`

// Vector is a feature vector stored as a JSON array.
type Vector []float64

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]float64(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src any) error {
	var b []byte
	switch s := src.(type) {
	case string:
		b = []byte(s)
	case []byte:
		b = s
	case nil:
		*v = nil
		return nil
	default:
		return fmt.Errorf("store: cannot scan %T into Vector", src)
	}
	return json.Unmarshal(b, (*[]float64)(v))
}

// Episode is one completed hand from the agent's point of view.
type Episode struct {
	ID          string  `db:"id"`
	Seed        int64   `db:"seed"`
	Reward      float64 `db:"reward"`
	Steps       int     `db:"steps"`
	Showdown    bool    `db:"showdown"`
	Pot         int     `db:"pot"`
	AgentDealer bool    `db:"agent_dealer"`
}

// Transition is one (observation, action, reward, next observation) tuple.
type Transition struct {
	EpisodeID string  `db:"episode_id"`
	Step      int     `db:"step"`
	Obs       Vector  `db:"obs"`
	Action    float64 `db:"action"`
	Reward    float64 `db:"reward"`
	NextObs   Vector  `db:"next_obs"`
	Done      bool    `db:"done"`
}

// Summary aggregates the stored episodes.
type Summary struct {
	Episodes    int     `db:"episodes"`
	Transitions int     `db:"transitions"`
	MeanReward  float64 `db:"mean_reward"`
	Showdowns   int     `db:"showdowns"`
}

// Store is a SQLite-backed episode store. It is safe for concurrent use;
// writes are serialised on a single connection.
type Store struct {
	db     *sqlx.DB
	logger *log.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	logger = logger.WithPrefix("store")
	logger.Debug("Opened store", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveEpisode writes an episode and its transitions in one transaction.
// Saving an existing ID replaces it.
func (s *Store) SaveEpisode(ctx context.Context, ep Episode, transitions []Transition) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE id = ?`, ep.ID); err != nil {
		return fmt.Errorf("replace episode %s: %w", ep.ID, err)
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO episodes (id, seed, reward, steps, showdown, pot, agent_dealer)
		VALUES (:id, :seed, :reward, :steps, :showdown, :pot, :agent_dealer)`, ep); err != nil {
		return fmt.Errorf("insert episode %s: %w", ep.ID, err)
	}

	if len(transitions) > 0 {
		rows := make([]Transition, len(transitions))
		for i, t := range transitions {
			t.EpisodeID = ep.ID
			rows[i] = t
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO transitions (episode_id, step, obs, action, reward, next_obs, done)
			VALUES (:episode_id, :step, :obs, :action, :reward, :next_obs, :done)`, rows); err != nil {
			return fmt.Errorf("insert transitions for %s: %w", ep.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("Saved episode", "id", ep.ID, "reward", ep.Reward, "transitions", len(transitions))
	return nil
}

// Episode loads a single episode.
func (s *Store) Episode(ctx context.Context, id string) (Episode, error) {
	var ep Episode
	err := s.db.GetContext(ctx, &ep, `SELECT * FROM episodes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ep, fmt.Errorf("episode %s: %w", id, ErrNotFound)
	}
	return ep, err
}

// Transitions returns an episode's transitions in step order.
func (s *Store) Transitions(ctx context.Context, episodeID string) ([]Transition, error) {
	var ts []Transition
	err := s.db.SelectContext(ctx, &ts,
		`SELECT * FROM transitions WHERE episode_id = ? ORDER BY step`, episodeID)
	return ts, err
}

// Sample draws n transitions uniformly with replacement.
func (s *Store) Sample(ctx context.Context, n int, rng *rand.Rand) ([]Transition, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transitions`); err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("sample: %w", ErrNotFound)
	}

	out := make([]Transition, 0, n)
	for range n {
		var t Transition
		if err := s.db.GetContext(ctx, &t,
			`SELECT * FROM transitions ORDER BY episode_id, step LIMIT 1 OFFSET ?`, rng.IntN(total)); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Summary reports counts and the mean reward.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.GetContext(ctx, &sum, `
		SELECT
			(SELECT COUNT(*) FROM episodes)                    AS episodes,
			(SELECT COUNT(*) FROM transitions)                 AS transitions,
			(SELECT COALESCE(AVG(reward), 0) FROM episodes)    AS mean_reward,
			(SELECT COALESCE(SUM(showdown), 0) FROM episodes)  AS showdowns`)
	return sum, err
}
