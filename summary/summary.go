// Package summary records training scalars and histograms in a SQLite
// file under the log directory.
package summary

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"
)

// FileName is the summary database inside the log directory.
const FileName = "summaries.db"

// DefaultBins is the histogram resolution used for embedding tables.
const DefaultBins = 30

const schema = `
CREATE TABLE IF NOT EXISTS scalars (
	step INTEGER NOT NULL,
	tag TEXT NOT NULL,
	value REAL NOT NULL,
	wall_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scalars_tag ON scalars(tag, step);
CREATE TABLE IF NOT EXISTS histograms (
	step INTEGER NOT NULL,
	tag TEXT NOT NULL,
	bucket INTEGER NOT NULL,
	lower REAL NOT NULL,
	upper REAL NOT NULL,
	count REAL NOT NULL,
	PRIMARY KEY (tag, step, bucket)
);
`

type Point struct {
	Step  int64
	Value float64
}

type Bucket struct {
	Lower float64
	Upper float64
	Count float64
}

type Writer struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open creates dir if needed and opens its summary database.
func Open(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open summaries %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create summary schema: %w", err)
	}
	return &Writer{db: db, path: path}, nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Close() error {
	return w.db.Close()
}

func (w *Writer) Scalar(step int64, tag string, v float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.db.Exec(`INSERT INTO scalars (step, tag, value, wall_time) VALUES (?, ?, ?, ?)`,
		step, tag, v, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write scalar %s: %w", tag, err)
	}
	return nil
}

// Histogram buckets values into bins equal-width buckets spanning their
// range and records the counts.
func (w *Writer) Histogram(step int64, tag string, values []float32, bins int) error {
	buckets := Buckets(values, bins)
	if len(buckets) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO histograms (step, tag, bucket, lower, upper, count)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare histogram: %w", err)
	}
	defer stmt.Close()
	for i, b := range buckets {
		if _, err := stmt.Exec(step, tag, i, b.Lower, b.Upper, b.Count); err != nil {
			return fmt.Errorf("write histogram %s: %w", tag, err)
		}
	}
	return tx.Commit()
}

// Buckets computes an equal-width histogram of values. The last upper
// edge is nudged above the maximum so every value falls in a bucket.
func Buckets(values []float32, bins int) []Bucket {
	if len(values) == 0 || bins <= 0 {
		return nil
	}
	x := make([]float64, len(values))
	for i, v := range values {
		x[i] = float64(v)
	}
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		hi = lo + 1
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(dividers[bins], math.Inf(1))
	counts := stat.Histogram(nil, dividers, x, nil)

	buckets := make([]Bucket, bins)
	for i := range buckets {
		buckets[i] = Bucket{Lower: dividers[i], Upper: dividers[i+1], Count: counts[i]}
	}
	return buckets
}

// Scalars reads back the series of tag in step order.
func (w *Writer) Scalars(tag string) ([]Point, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, err := w.db.Query(`SELECT step, value FROM scalars WHERE tag = ? ORDER BY step, rowid`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pts []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Step, &p.Value); err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, rows.Err()
}

// HistogramAt reads back the buckets of tag recorded at step.
func (w *Writer) HistogramAt(tag string, step int64) ([]Bucket, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, err := w.db.Query(`SELECT lower, upper, count FROM histograms
		WHERE tag = ? AND step = ? ORDER BY bucket`, tag, step)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var buckets []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Lower, &b.Upper, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
