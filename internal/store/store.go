package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/statlab/bayeslab/internal/posterior"
	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite" // SQLite driver
)

// Store is the workspace database: datasets, fitted runs, posterior draws,
// and pointwise log-likelihoods.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	root string
}

// Open opens (creating if needed) the workspace database under
// root/.bayeslab/.
func Open(root string) (*Store, error) {
	if err := EnsureWorkDir(root); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", DBPath(root)+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, root: root}, nil
}

// Root returns the workspace root this store was opened at.
func (s *Store) Root() string { return s.root }

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dataset is a stored dataset record. The data itself lives in the CSV
// file at Path; the record carries provenance.
type Dataset struct {
	Name      string             `json:"name"`
	Path      string             `json:"path"`
	Scenario  string             `json:"scenario,omitempty"`
	Truth     map[string]float64 `json:"truth,omitempty"`
	Seed      uint64             `json:"seed"`
	Rows      int                `json:"rows"`
	CreatedAt time.Time          `json:"created_at"`
}

// SaveDataset inserts or replaces a dataset record by name.
func (s *Store) SaveDataset(ctx context.Context, ds *Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	truth, err := json.Marshal(ds.Truth)
	if err != nil {
		return fmt.Errorf("failed to marshal truth: %w", err)
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO datasets (name, path, scenario, truth, seed, rows, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ds.Name, ds.Path, ds.Scenario, string(truth), int64(ds.Seed), ds.Rows,
		ds.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save dataset %q: %w", ds.Name, err)
	}
	return nil
}

// GetDataset returns the dataset record with the given name.
func (s *Store) GetDataset(ctx context.Context, name string) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT name, path, scenario, truth, seed, rows, created_at
		FROM datasets WHERE name = ?`, name)

	ds, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dataset %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %q: %w", name, err)
	}
	return ds, nil
}

// ListDatasets returns all dataset records, newest first.
func (s *Store) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, path, scenario, truth, seed, rows, created_at
		FROM datasets ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var out []*Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(r rowScanner) (*Dataset, error) {
	var (
		ds        Dataset
		truth     string
		seed      int64
		createdAt string
	)
	if err := r.Scan(&ds.Name, &ds.Path, &ds.Scenario, &truth, &seed, &ds.Rows, &createdAt); err != nil {
		return nil, err
	}
	ds.Seed = uint64(seed)
	if truth != "" && truth != "null" {
		if err := json.Unmarshal([]byte(truth), &ds.Truth); err != nil {
			return nil, fmt.Errorf("failed to unmarshal truth: %w", err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	ds.CreatedAt = t
	return &ds, nil
}

// Run is a stored fit: the model, its sampler settings, and outcome
// metadata. Draws and log-likelihoods are stored alongside under the
// run id.
type Run struct {
	ID           int64     `json:"id"`
	Model        string    `json:"model"`
	SpecYAML     string    `json:"spec_yaml"`
	Dataset      string    `json:"dataset"`
	Chains       int       `json:"chains"`
	Warmup       int       `json:"warmup"`
	Iterations   int       `json:"iterations"`
	Seed         uint64    `json:"seed"`
	TargetAccept float64   `json:"target_accept"`
	Accept       []float64 `json:"accept"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveRun stores a completed fit in one transaction: the run record, each
// chain's draws as a packed blob, and the pointwise log-likelihood matrix.
// Returns the new run id. loglik may be nil.
func (s *Store) SaveRun(ctx context.Context, run *Run, draws *posterior.Draws, loglik *mat.Dense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := draws.Validate(); err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	accept, err := json.Marshal(run.Accept)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal acceptance rates: %w", err)
	}
	params, err := json.Marshal(draws.Params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal parameter names: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (model, spec_yaml, dataset, chains, warmup, iterations,
			seed, target_accept, accept, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Model, run.SpecYAML, run.Dataset, run.Chains, run.Warmup, run.Iterations,
		int64(run.Seed), run.TargetAccept, string(accept),
		run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	flat := make([]float64, 0, draws.NumDraws()*len(draws.Params))
	for c, chain := range draws.Chains {
		flat = flat[:0]
		for _, draw := range chain {
			flat = append(flat, draw...)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO draws (run_id, chain, params, data) VALUES (?, ?, ?, ?)`,
			id, c, string(params), packFloats(flat)); err != nil {
			return 0, fmt.Errorf("failed to insert chain %d draws: %w", c, err)
		}
	}

	if loglik != nil {
		nd, nobs := loglik.Dims()
		flatLL := make([]float64, 0, nd*nobs)
		row := make([]float64, nobs)
		for d := 0; d < nd; d++ {
			mat.Row(row, d, loglik)
			flatLL = append(flatLL, row...)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO loglik (run_id, draws, observations, data) VALUES (?, ?, ?, ?)`,
			id, nd, nobs, packFloats(flatLL)); err != nil {
			return 0, fmt.Errorf("failed to insert log-likelihood: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	run.ID = id
	return id, nil
}

// GetRun returns the run record with the given id.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, model, spec_yaml, dataset, chains, warmup, iterations,
			seed, target_accept, accept, created_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	return run, nil
}

// LatestRun returns the most recent run for the named model.
func (s *Store) LatestRun(ctx context.Context, model string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, model, spec_yaml, dataset, chains, warmup, iterations,
			seed, target_accept, accept, created_at
		FROM runs WHERE model = ? ORDER BY id DESC LIMIT 1`, model)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no runs found for model %q", model)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run for %q: %w", model, err)
	}
	return run, nil
}

// ListRuns returns all run records, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, spec_yaml, dataset, chains, warmup, iterations,
			seed, target_accept, accept, created_at
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanRun(r rowScanner) (*Run, error) {
	var (
		run       Run
		seed      int64
		accept    string
		createdAt string
	)
	if err := r.Scan(&run.ID, &run.Model, &run.SpecYAML, &run.Dataset, &run.Chains,
		&run.Warmup, &run.Iterations, &seed, &run.TargetAccept, &accept, &createdAt); err != nil {
		return nil, err
	}
	run.Seed = uint64(seed)
	if err := json.Unmarshal([]byte(accept), &run.Accept); err != nil {
		return nil, fmt.Errorf("failed to unmarshal acceptance rates: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	run.CreatedAt = t
	return &run, nil
}

// LoadDraws loads a run's posterior draws. The round-trip through the
// packed blobs is bit-exact.
func (s *Store) LoadDraws(ctx context.Context, runID int64) (*posterior.Draws, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT chain, params, data FROM draws WHERE run_id = ? ORDER BY chain`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draws for run %d: %w", runID, err)
	}
	defer rows.Close()

	d := &posterior.Draws{}
	for rows.Next() {
		var (
			chain  int
			params string
			blob   []byte
		)
		if err := rows.Scan(&chain, &params, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan draws: %w", err)
		}
		if d.Params == nil {
			if err := json.Unmarshal([]byte(params), &d.Params); err != nil {
				return nil, fmt.Errorf("failed to unmarshal parameter names: %w", err)
			}
		}

		flat, err := unpackFloats(blob)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", chain, err)
		}
		dim := len(d.Params)
		if dim == 0 || len(flat)%dim != 0 {
			return nil, fmt.Errorf("chain %d: blob holds %d values, not a multiple of %d parameters", chain, len(flat), dim)
		}

		iters := make([][]float64, len(flat)/dim)
		for i := range iters {
			iters[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
		}
		d.Chains = append(d.Chains, iters)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(d.Chains) == 0 {
		return nil, fmt.Errorf("no draws found for run %d", runID)
	}
	return d, nil
}

// LoadLogLik loads a run's pointwise log-likelihood matrix.
func (s *Store) LoadLogLik(ctx context.Context, runID int64) (*mat.Dense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		nd, nobs int
		blob     []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT draws, observations, data FROM loglik WHERE run_id = ?`, runID).
		Scan(&nd, &nobs, &blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no log-likelihood stored for run %d", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load log-likelihood for run %d: %w", runID, err)
	}

	flat, err := unpackFloats(blob)
	if err != nil {
		return nil, fmt.Errorf("run %d log-likelihood: %w", runID, err)
	}
	if len(flat) != nd*nobs {
		return nil, fmt.Errorf("run %d log-likelihood: blob holds %d values, want %d", runID, len(flat), nd*nobs)
	}
	return mat.NewDense(nd, nobs, flat), nil
}
