//Package store persists analysis results in a sqlite database, so scans
//over attempts, state counts and lags can be compared and re-plotted
//without redoing the estimation. Arrays travel as JSON columns.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the results database.
type DB struct {
	*sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	attempt     INTEGER NOT NULL,
	nstates     INTEGER NOT NULL,
	lag         INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	sorter      TEXT,
	populations TEXT,
	transmat    TEXT,
	its_lags    TEXT,
	its         TEXT,
	ck_steps    TEXT,
	ck_pred     TEXT,
	ck_est      TEXT,
	vamp2       REAL,
	UNIQUE(attempt, nstates, lag)
);
`

// Open opens (creating if needed) a results database. Use ":memory:" for
// an ephemeral one.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %v", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating schema: %v", err)
	}
	return &DB{db}, nil
}

// Result is one stored analysis: a model estimated for a given exploration
// attempt, number of microstates and lag.
type Result struct {
	Attempt     int
	NStates     int
	Lag         int
	CreatedAt   time.Time
	Sorter      []int       //metastable set ordering, most populated first
	Populations []float64   //stationary population per metastable set
	TransMat    []float64   //row-major flattened transition matrix
	ITSLags     []int       //lags of the timescale scan
	ITS         [][]float64 //timescales per lag
	CKSteps     []int
	CKPred      [][]float64
	CKEst       [][]float64
	VAMP2       float64
}

func marshal(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshal(s sql.NullString, v interface{}) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

// Save stores a result, replacing any previous one with the same
// (attempt, nstates, lag) key.
func (db *DB) Save(r *Result) error {
	if r == nil {
		return fmt.Errorf("store: nil result")
	}
	cols := []interface{}{}
	for _, v := range []interface{}{r.Sorter, r.Populations, r.TransMat, r.ITSLags, r.ITS, r.CKSteps, r.CKPred, r.CKEst} {
		s, err := marshal(v)
		if err != nil {
			return fmt.Errorf("store: encoding result: %v", err)
		}
		cols = append(cols, s)
	}
	_, err := db.Exec(`
		INSERT OR REPLACE INTO results
		(attempt, nstates, lag, created_at, sorter, populations, transmat,
		 its_lags, its, ck_steps, ck_pred, ck_est, vamp2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]interface{}{r.Attempt, r.NStates, r.Lag, time.Now().UTC().Format(time.RFC3339)},
			append(cols, r.VAMP2)...)...)
	if err != nil {
		return fmt.Errorf("store: saving result: %v", err)
	}
	return nil
}

// Load retrieves the result stored under (attempt, nstates, lag).
func (db *DB) Load(attempt, nstates, lag int) (*Result, error) {
	row := db.QueryRow(`
		SELECT attempt, nstates, lag, created_at, sorter, populations,
		       transmat, its_lags, its, ck_steps, ck_pred, ck_est, vamp2
		FROM results WHERE attempt = ? AND nstates = ? AND lag = ?`,
		attempt, nstates, lag)
	return scanResult(row)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row scanner) (*Result, error) {
	r := new(Result)
	var created string
	var sorter, pops, tmat, itsLags, its, ckSteps, ckPred, ckEst sql.NullString
	err := row.Scan(&r.Attempt, &r.NStates, &r.Lag, &created, &sorter, &pops,
		&tmat, &itsLags, &its, &ckSteps, &ckPred, &ckEst, &r.VAMP2)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: no such result")
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading result: %v", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	for _, pair := range []struct {
		src sql.NullString
		dst interface{}
	}{
		{sorter, &r.Sorter}, {pops, &r.Populations}, {tmat, &r.TransMat},
		{itsLags, &r.ITSLags}, {its, &r.ITS}, {ckSteps, &r.CKSteps},
		{ckPred, &r.CKPred}, {ckEst, &r.CKEst},
	} {
		if err := unmarshal(pair.src, pair.dst); err != nil {
			return nil, fmt.Errorf("store: decoding result: %v", err)
		}
	}
	return r, nil
}

// List returns the keys of every stored result, ordered by attempt,
// nstates and lag.
func (db *DB) List() ([][3]int, error) {
	rows, err := db.Query(`SELECT attempt, nstates, lag FROM results ORDER BY attempt, nstates, lag`)
	if err != nil {
		return nil, fmt.Errorf("store: listing results: %v", err)
	}
	defer rows.Close()
	var ret [][3]int
	for rows.Next() {
		var k [3]int
		if err := rows.Scan(&k[0], &k[1], &k[2]); err != nil {
			return nil, fmt.Errorf("store: listing results: %v", err)
		}
		ret = append(ret, k)
	}
	return ret, rows.Err()
}

// Delete removes the result under (attempt, nstates, lag), reporting
// whether one existed.
func (db *DB) Delete(attempt, nstates, lag int) (bool, error) {
	res, err := db.Exec(`DELETE FROM results WHERE attempt = ? AND nstates = ? AND lag = ?`,
		attempt, nstates, lag)
	if err != nil {
		return false, fmt.Errorf("store: deleting result: %v", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
