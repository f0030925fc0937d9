// Package checkpoint stores model snapshots in a SQLite file, one file per
// training run and one row set per saved step.
package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/arsenuw/lda2vec/config"
	"github.com/arsenuw/lda2vec/matrix"
	"github.com/arsenuw/lda2vec/model"
)

var (
	ErrNotFound = errors.New("checkpoint: not found")
	ErrCorrupt  = errors.New("checkpoint: corrupt")
)

// Latest selects the most recent checkpoint in Load and Restore.
const Latest int64 = -1

// RunLayout formats the timestamp that names a run.
const RunLayout = "060102_1504"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS checkpoints (
	step INTEGER PRIMARY KEY,
	created_at INTEGER NOT NULL,
	hyperparams TEXT NOT NULL,
	n_docs INTEGER NOT NULL,
	n_vocab INTEGER NOT NULL,
	fixed_words INTEGER NOT NULL,
	word2vec_only INTEGER NOT NULL,
	switch_threshold INTEGER NOT NULL,
	fraction REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS params (
	step INTEGER NOT NULL,
	name TEXT NOT NULL,
	rows INTEGER NOT NULL,
	cols INTEGER NOT NULL,
	data BLOB NOT NULL,
	PRIMARY KEY (step, name)
);
`

// RunName names a fresh run started at now.
func RunName(now time.Time) string {
	return now.Format(RunLayout)
}

// ContinuedRunName names a run restored from prev.
func ContinuedRunName(prev string, now time.Time) string {
	return prev + "_" + RunName(now)
}

// FileName is the database file of a run.
func FileName(run string) string {
	return run + "_lda2vec.db"
}

// Store is an open checkpoint database.
type Store struct {
	db   *sql.DB
	path string
	run  string
	id   string
}

// Open creates dir if needed and opens or creates the database of run.
func Open(dir, run string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	path := filepath.Join(dir, FileName(run))
	s, err := open(path)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(schema); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("create checkpoint schema: %w", err)
	}
	s.run = run
	if err := s.initMeta(); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

// OpenExisting opens a database written by an earlier run. The file must
// exist.
func OpenExisting(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	s, err := open(path)
	if err != nil {
		return nil, err
	}
	meta, err := s.meta()
	if err != nil {
		s.db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	s.run, s.id = meta["run"], meta["run_id"]
	return s, nil
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %s: %w", path, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

func (s *Store) initMeta() error {
	meta, err := s.meta()
	if err != nil {
		return err
	}
	if id, ok := meta["run_id"]; ok {
		s.id = id
		return nil
	}
	s.id = uuid.NewString()
	_, err = s.db.Exec(`INSERT INTO meta (key, value) VALUES ('run', ?), ('run_id', ?), ('created_at', ?)`,
		s.run, s.id, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write checkpoint meta: %w", err)
	}
	return nil
}

func (s *Store) meta() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Run() string {
	return s.run
}

// RunID is the unique identifier recorded when the run was created.
func (s *Store) RunID() string {
	return s.id
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes state under its step in a single transaction, replacing an
// earlier checkpoint of the same step.
func (s *Store) Save(state *model.State) error {
	hp, err := config.MarshalHyperparams(state.Hyperparams)
	if err != nil {
		return fmt.Errorf("encode hyperparams: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM params WHERE step = ?`, state.Step); err != nil {
		return fmt.Errorf("clear params: %w", err)
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO checkpoints
		(step, created_at, hyperparams, n_docs, n_vocab, fixed_words, word2vec_only, switch_threshold, fraction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.Step, time.Now().Unix(), string(hp), state.NDocs, state.NVocab,
		state.FixedWords, state.Word2VecOnly, state.SwitchThreshold, state.Fraction)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO params (step, name, rows, cols, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare params: %w", err)
	}
	defer stmt.Close()
	for name, m := range state.Params {
		blob, err := m.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		r, c := m.Shape()
		if _, err := stmt.Exec(state.Step, name, r, c, blob); err != nil {
			return fmt.Errorf("insert %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	log.V(1).Infof("checkpoint: saved step %d to %s", state.Step, s.path)
	return nil
}

// Steps lists the saved steps in ascending order.
func (s *Store) Steps() ([]int64, error) {
	rows, err := s.db.Query(`SELECT step FROM checkpoints ORDER BY step`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()
	var steps []int64
	for rows.Next() {
		var step int64
		if err := rows.Scan(&step); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// Load reads the checkpoint of step, or the latest one when step is
// negative.
func (s *Store) Load(step int64) (*model.State, error) {
	if step < 0 {
		var latest sql.NullInt64
		if err := s.db.QueryRow(`SELECT MAX(step) FROM checkpoints`).Scan(&latest); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if !latest.Valid {
			return nil, fmt.Errorf("%w: no checkpoint in %s", ErrNotFound, s.path)
		}
		step = latest.Int64
	}

	var (
		hp    string
		state = &model.State{Step: step, Params: make(map[string]*matrix.Float32Matrix)}
	)
	err := s.db.QueryRow(`SELECT hyperparams, n_docs, n_vocab, fixed_words, word2vec_only, switch_threshold, fraction
		FROM checkpoints WHERE step = ?`, step).Scan(&hp, &state.NDocs, &state.NVocab,
		&state.FixedWords, &state.Word2VecOnly, &state.SwitchThreshold, &state.Fraction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: step %d in %s", ErrNotFound, step, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: step %d: %v", ErrCorrupt, step, err)
	}
	if state.Hyperparams, err = config.UnmarshalHyperparams([]byte(hp)); err != nil {
		return nil, fmt.Errorf("%w: hyperparams: %v", ErrCorrupt, err)
	}

	rows, err := s.db.Query(`SELECT name, rows, cols, data FROM params WHERE step = ?`, step)
	if err != nil {
		return nil, fmt.Errorf("%w: params: %v", ErrCorrupt, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name string
			r, c int
			blob []byte
			m    matrix.Float32Matrix
		)
		if err := rows.Scan(&name, &r, &c, &blob); err != nil {
			return nil, fmt.Errorf("%w: params: %v", ErrCorrupt, err)
		}
		if err := m.UnmarshalBinary(blob); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
		}
		if mr, mc := m.Shape(); mr != r || mc != c {
			return nil, fmt.Errorf("%w: %s is %dx%d, recorded %dx%d", ErrCorrupt, name, mr, mc, r, c)
		}
		state.Params[name] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: params: %v", ErrCorrupt, err)
	}
	return state, nil
}

// Restore reads one checkpoint of an existing database file.
func Restore(path string, step int64) (*model.State, string, error) {
	s, err := OpenExisting(path)
	if err != nil {
		return nil, "", err
	}
	defer s.Close()
	state, err := s.Load(step)
	if err != nil {
		return nil, "", err
	}
	log.Infof("checkpoint: restored step %d of run %s from %s", state.Step, s.run, path)
	return state, s.run, nil
}
