// Package sqlite persists observable entities in a normalized SQLite star
// schema: deduplicated dimension tables for collision systems,
// collaborations and observable names, one fact row per measurement, and an
// optional kinematic-cut row per fact.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"hicdata/internal/infra/persistence/record"
	"hicdata/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.ResultStore = (*Store)(nil)

// Store is a SQLite-backed domain.ResultStore. It owns the database handle
// exclusively; each Save or Load runs in its own transaction.
type Store struct {
	db  *sql.DB
	reg *domain.Registry
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS systems (
	system_id INTEGER PRIMARY KEY,
	system_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS collaborations (
	collaboration_id INTEGER PRIMARY KEY,
	collaboration_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS observables (
	observable_id INTEGER PRIMARY KEY,
	observable_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS experimental_results (
	result_id INTEGER PRIMARY KEY,
	system_id INTEGER NOT NULL REFERENCES systems(system_id),
	collaboration_id INTEGER NOT NULL REFERENCES collaborations(collaboration_id),
	observable_id INTEGER NOT NULL REFERENCES observables(observable_id),
	kind TEXT NOT NULL,
	display_name TEXT NOT NULL,
	centrality_bins TEXT NOT NULL,
	value TEXT NOT NULL,
	error TEXT NOT NULL,
	reference TEXT NOT NULL,
	trigger_info TEXT NOT NULL,
	params TEXT NOT NULL,
	UNIQUE(observable_id, system_id, collaboration_id, reference)
);
CREATE TABLE IF NOT EXISTS kinematic_cuts (
	cut_id INTEGER PRIMARY KEY,
	result_id INTEGER NOT NULL REFERENCES experimental_results(result_id),
	eta_min REAL, eta_max REAL,
	pt_min REAL, pt_max REAL,
	y_min REAL, y_max REAL
);
`

// Open opens (creating if necessary) a SQLite store at path and applies the
// schema. Entities loaded back are revalidated against reg.
func Open(path string, reg *domain.Registry) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	// _pragma parameters apply to every pooled connection.
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, reg: reg}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Save encodes the entity, resolves its three dimension keys and inserts
// the fact row (plus kinematic-cut row when present) in one transaction.
func (s *Store) Save(ctx context.Context, entity domain.ObservableEntity) (resultID int64, retErr error) {
	enc, err := record.Encode(s.reg, entity)
	if err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	systemID, err := resolveDimension(ctx, tx, "systems", "system_id", "system_name", enc.SystemName)
	if err != nil {
		return 0, err
	}
	collaborationID, err := resolveDimension(ctx, tx, "collaborations", "collaboration_id", "collaboration_name", enc.Collaboration)
	if err != nil {
		return 0, err
	}
	observableID, err := resolveDimension(ctx, tx, "observables", "observable_id", "observable_name", enc.ObservableName)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO experimental_results (
			system_id, collaboration_id, observable_id, kind, display_name,
			centrality_bins, value, error, reference, trigger_info, params
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		systemID, collaborationID, observableID, enc.Kind, enc.DisplayName,
		enc.CentralityBins, enc.Value, enc.Error, enc.Reference, enc.TriggerInfo, enc.Params,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, record.ErrDuplicateResult
		}
		return 0, fmt.Errorf("insert result: %w", err)
	}
	resultID, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("result id: %w", err)
	}
	if entity.Cut != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kinematic_cuts (
				result_id, eta_min, eta_max, pt_min, pt_max, y_min, y_max
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			resultID, entity.Cut.EtaMin, entity.Cut.EtaMax,
			entity.Cut.PtMin, entity.Cut.PtMax, entity.Cut.YMin, entity.Cut.YMax,
		); err != nil {
			return 0, fmt.Errorf("insert kinematic cut: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return resultID, nil
}

// resolveDimension returns the surrogate id for a dimension natural key,
// inserting the row when the key is unseen. The insert-or-ignore plus
// reread runs inside the caller's transaction, so a single writer observes
// exactly one id per key; concurrent writers serialize on the unique
// constraint instead of racing an exists-check.
func resolveDimension(ctx context.Context, tx *sql.Tx, table, idCol, nameCol, name string) (int64, error) {
	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?) ON CONFLICT(%s) DO NOTHING`, table, nameCol, nameCol)
	if _, err := tx.ExecContext(ctx, insert, name); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, idCol, table, nameCol)
	var id int64
	if err := tx.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.DimensionConflictError{Table: table, Key: name}
		}
		return 0, fmt.Errorf("select %s: %w", table, err)
	}
	return id, nil
}

const loadColumns = `
	r.result_id, s.system_name, c.collaboration_name, o.observable_name,
	r.kind, r.display_name, r.centrality_bins, r.value, r.error,
	r.reference, r.trigger_info, r.params,
	k.eta_min, k.eta_max, k.pt_min, k.pt_max, k.y_min, k.y_max`

const loadJoins = `
	FROM experimental_results r
	JOIN systems s ON s.system_id = r.system_id
	JOIN collaborations c ON c.collaboration_id = r.collaboration_id
	JOIN observables o ON o.observable_id = r.observable_id
	LEFT JOIN kinematic_cuts k ON k.result_id = r.result_id`

// LoadAll returns every stored measurement of the named observable in
// insertion order.
func (s *Store) LoadAll(ctx context.Context, shortName string) ([]domain.ObservableEntity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT`+loadColumns+loadJoins+` WHERE o.observable_name = ? ORDER BY r.result_id`, shortName)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", shortName, err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ObservableEntity
	for rows.Next() {
		entity, err := s.scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", shortName, err)
	}
	if len(out) == 0 {
		return nil, domain.NotFoundError{Observable: shortName}
	}
	return out, nil
}

// Load disambiguates by the (system, collaboration, arXiv) natural triple.
func (s *Store) Load(ctx context.Context, shortName, system, collaboration, arXiv string) (domain.ObservableEntity, error) {
	entities, err := s.LoadAll(ctx, shortName)
	if err != nil {
		var nf domain.NotFoundError
		if errors.As(err, &nf) {
			return domain.ObservableEntity{}, domain.NotFoundError{
				Observable: shortName, System: system, Collaboration: collaboration, ArXiv: arXiv,
			}
		}
		return domain.ObservableEntity{}, err
	}
	for _, e := range entities {
		if e.System.Name == system && e.Collaboration == collaboration && e.Reference.ArXiv == arXiv {
			return e, nil
		}
	}
	return domain.ObservableEntity{}, domain.NotFoundError{
		Observable: shortName, System: system, Collaboration: collaboration, ArXiv: arXiv,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanEntity(sc rowScanner) (domain.ObservableEntity, error) {
	var row record.Row
	var etaMin, etaMax, ptMin, ptMax, yMin, yMax sql.NullFloat64
	if err := sc.Scan(
		&row.ResultID, &row.SystemName, &row.Collaboration, &row.ObservableName,
		&row.Kind, &row.DisplayName, &row.CentralityBins, &row.Value, &row.Error,
		&row.Reference, &row.TriggerInfo, &row.Params,
		&etaMin, &etaMax, &ptMin, &ptMax, &yMin, &yMax,
	); err != nil {
		return domain.ObservableEntity{}, fmt.Errorf("scan result: %w", err)
	}
	row.Cut = cutFromNullable(etaMin, etaMax, ptMin, ptMax, yMin, yMax)
	return record.Decode(s.reg, row)
}

func cutFromNullable(vals ...sql.NullFloat64) *domain.KinematicCut {
	present := false
	for _, v := range vals {
		if v.Valid {
			present = true
			break
		}
	}
	if !present {
		return nil
	}
	ptr := func(v sql.NullFloat64) *float64 {
		if !v.Valid {
			return nil
		}
		f := v.Float64
		return &f
	}
	return &domain.KinematicCut{
		EtaMin: ptr(vals[0]), EtaMax: ptr(vals[1]),
		PtMin: ptr(vals[2]), PtMax: ptr(vals[3]),
		YMin: ptr(vals[4]), YMax: ptr(vals[5]),
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
