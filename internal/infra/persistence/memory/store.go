// Package memory provides an in-memory domain.ResultStore used by tests and
// by deployments that only need a transient catalogue. It applies the same
// dimension deduplication and payload round-trip as the SQL backends so the
// persistence contract can be exercised without a database file.
package memory

import (
	"context"
	"sync"

	"hicdata/internal/infra/persistence/record"
	"hicdata/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.ResultStore = (*Store)(nil)

type factRow struct {
	id  int64
	row record.Row
}

// Store keeps dimensions and fact rows in maps guarded by one mutex.
type Store struct {
	reg *domain.Registry

	mu             sync.Mutex
	systems        map[string]int64
	collaborations map[string]int64
	observables    map[string]int64
	nextDimID      int64
	nextResultID   int64
	results        []factRow
	identities     map[identity]struct{}
}

type identity struct {
	observable    string
	system        string
	collaboration string
	reference     string
}

// NewStore returns an empty in-memory store validating against reg.
func NewStore(reg *domain.Registry) *Store {
	return &Store{
		reg:            reg,
		systems:        make(map[string]int64),
		collaborations: make(map[string]int64),
		observables:    make(map[string]int64),
		nextDimID:      1,
		nextResultID:   1,
		identities:     make(map[identity]struct{}),
	}
}

// Close is a no-op; the store holds no external resources.
func (s *Store) Close() error { return nil }

// Save stores the entity's encoded fact row, resolving dimensions
// idempotently. The mutex makes the whole save atomic, matching the SQL
// backends' transaction boundary.
func (s *Store) Save(ctx context.Context, entity domain.ObservableEntity) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	enc, err := record.Encode(s.reg, entity)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identity{
		observable:    enc.ObservableName,
		system:        enc.SystemName,
		collaboration: enc.Collaboration,
		reference:     enc.Reference,
	}
	if _, dup := s.identities[key]; dup {
		return 0, record.ErrDuplicateResult
	}

	s.resolve(s.systems, enc.SystemName)
	s.resolve(s.collaborations, enc.Collaboration)
	s.resolve(s.observables, enc.ObservableName)

	id := s.nextResultID
	s.nextResultID++
	row := record.Row{
		ResultID:       id,
		SystemName:     enc.SystemName,
		Collaboration:  enc.Collaboration,
		ObservableName: enc.ObservableName,
		Kind:           enc.Kind,
		DisplayName:    enc.DisplayName,
		CentralityBins: enc.CentralityBins,
		Value:          enc.Value,
		Error:          enc.Error,
		Reference:      enc.Reference,
		TriggerInfo:    enc.TriggerInfo,
		Params:         enc.Params,
		Cut:            entity.Cut,
	}
	s.results = append(s.results, factRow{id: id, row: row})
	s.identities[key] = struct{}{}
	return id, nil
}

func (s *Store) resolve(dim map[string]int64, name string) int64 {
	if id, ok := dim[name]; ok {
		return id
	}
	id := s.nextDimID
	s.nextDimID++
	dim[name] = id
	return id
}

// LoadAll returns every stored measurement of the named observable in
// insertion order.
func (s *Store) LoadAll(ctx context.Context, shortName string) ([]domain.ObservableEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	rows := make([]record.Row, 0)
	for _, fr := range s.results {
		if fr.row.ObservableName == shortName {
			rows = append(rows, fr.row)
		}
	}
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil, domain.NotFoundError{Observable: shortName}
	}
	out := make([]domain.ObservableEntity, 0, len(rows))
	for _, row := range rows {
		entity, err := record.Decode(s.reg, row)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// Load disambiguates by the (system, collaboration, arXiv) natural triple.
func (s *Store) Load(ctx context.Context, shortName, system, collaboration, arXiv string) (domain.ObservableEntity, error) {
	entities, err := s.LoadAll(ctx, shortName)
	if err != nil {
		if _, ok := err.(domain.NotFoundError); ok {
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

// DimensionCounts reports the number of deduplicated rows per dimension,
// exposed for idempotency tests.
func (s *Store) DimensionCounts() (systems, collaborations, observables int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.systems), len(s.collaborations), len(s.observables)
}
