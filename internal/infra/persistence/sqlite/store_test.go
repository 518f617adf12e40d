package sqlite

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"hicdata/internal/infra/persistence/record"
	"hicdata/pkg/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"), domain.DefaultRegistry())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newEntity(t *testing.T, system, collaboration, arXiv string) domain.ObservableEntity {
	t.Helper()
	entity, err := domain.Construct(domain.DefaultRegistry(), domain.KindMultiplicity, domain.Common{
		Name:           "Charged multiplicity dNch/deta",
		ShortName:      "dNch_deta",
		System:         system,
		Collaboration:  collaboration,
		Reference:      domain.Reference{ArXiv: arXiv},
		CentralityBins: []domain.Bin{{0, 5}, {5, 10}, {10, 20}},
		Values:         []float64{1601, 1294, math.Pi},
		Errors:         []float64{60, 49, 1e-308},
		Trigger:        domain.TriggerInfo{"Trigger": "VZERO and SPD detectors"},
	}, domain.Params{
		ParticleType:  "charged",
		RapidityRange: &domain.Range{-0.5, 0.5},
		PTRange:       &domain.Range{0.2, 5.0},
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	return entity
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  ", domain.DefaultRegistry()); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	store := openTestStore(t)

	var fk int
	if err := store.DB().QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("pragma foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	var mode string
	if err := store.DB().QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("pragma journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestSaveLoadFullPrecisionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entity := newEntity(t, "Pb-Pb-2760", "ALICE", "1012.1657")
	if _, err := store.Save(ctx, entity); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.LoadAll(ctx, "dNch_deta")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d entities, want 1", len(loaded))
	}
	got := loaded[0]
	if got.System != entity.System || got.Collaboration != entity.Collaboration || got.Reference != entity.Reference {
		t.Errorf("identity differs: %+v", got)
	}
	for i := range entity.Values {
		if math.Float64bits(got.Values[i]) != math.Float64bits(entity.Values[i]) {
			t.Errorf("value %d lost precision: %v != %v", i, got.Values[i], entity.Values[i])
		}
		if math.Float64bits(got.Errors[i]) != math.Float64bits(entity.Errors[i]) {
			t.Errorf("error %d lost precision: %v != %v", i, got.Errors[i], entity.Errors[i])
		}
	}
	if got.Trigger["Trigger"] != "VZERO and SPD detectors" {
		t.Errorf("trigger info lost: %+v", got.Trigger)
	}
	if got.Params.ParticleType != "charged" || got.Params.PTRange == nil || (*got.Params.PTRange)[1] != 5.0 {
		t.Errorf("params lost: %+v", got.Params)
	}
}

func TestDimensionRowsDeduplicated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, newEntity(t, "Pb-Pb-2760", "ALICE", "1012.1657")); err != nil {
		t.Fatalf("save Pb-Pb: %v", err)
	}
	if _, err := store.Save(ctx, newEntity(t, "Au-Au-200", "ALICE", "nucl-ex/0409015")); err != nil {
		t.Fatalf("save Au-Au: %v", err)
	}

	count := func(query string) int {
		var n int
		if err := store.DB().QueryRow(query).Scan(&n); err != nil {
			t.Fatalf("%s: %v", query, err)
		}
		return n
	}
	if n := count(`SELECT COUNT(*) FROM collaborations`); n != 1 {
		t.Errorf("collaborations = %d, want 1", n)
	}
	if n := count(`SELECT COUNT(*) FROM systems`); n != 2 {
		t.Errorf("systems = %d, want 2", n)
	}
	if n := count(`SELECT COUNT(*) FROM observables`); n != 1 {
		t.Errorf("observables = %d, want 1", n)
	}
	if n := count(`SELECT COUNT(*) FROM experimental_results`); n != 2 {
		t.Errorf("fact rows = %d, want 2", n)
	}
}

func TestDuplicateResultRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entity := newEntity(t, "Pb-Pb-2760", "ALICE", "1012.1657")
	if _, err := store.Save(ctx, entity); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := store.Save(ctx, entity); !errors.Is(err, record.ErrDuplicateResult) {
		t.Fatalf("got %v, want ErrDuplicateResult", err)
	}

	// The rejected save must not leave partial rows behind.
	var n int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM experimental_results`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("fact rows = %d after duplicate rejection, want 1", n)
	}
}

func TestLoadAllReturnsEveryMeasurement(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, newEntity(t, "Pb-Pb-2760", "ALICE", "1012.1657"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save(ctx, newEntity(t, "Au-Au-200", "PHENIX", "nucl-ex/0409015"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if second <= first {
		t.Fatalf("result ids not increasing: %d then %d", first, second)
	}

	loaded, err := store.LoadAll(ctx, "dNch_deta")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d entities, want 2", len(loaded))
	}
	if loaded[0].System.Name != "Pb-Pb-2760" || loaded[1].System.Name != "Au-Au-200" {
		t.Errorf("insertion order not preserved: %s then %s",
			loaded[0].System.Name, loaded[1].System.Name)
	}
}

func TestLoadDisambiguatesByTriple(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, newEntity(t, "Pb-Pb-2760", "ALICE", "1012.1657")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(ctx, newEntity(t, "Au-Au-200", "PHENIX", "nucl-ex/0409015")); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "dNch_deta", "Au-Au-200", "PHENIX", "nucl-ex/0409015")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.System.Name != "Au-Au-200" || got.Collaboration != "PHENIX" {
		t.Fatalf("loaded wrong measurement: %+v", got)
	}

	_, err = store.Load(ctx, "dNch_deta", "Au-Au-200", "ALICE", "1012.1657")
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestLoadAllNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.LoadAll(context.Background(), "nonexistent_observable")
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestKinematicCutRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	etaMin, etaMax, ptMin := -0.8, 0.8, 0.15
	entity := newEntity(t, "Pb-Pb-2760", "ALICE", "1012.1657")
	withCut, err := domain.Construct(domain.DefaultRegistry(), entity.Kind, domain.Common{
		Name:           entity.Name,
		ShortName:      entity.ShortName,
		System:         entity.System.Name,
		Collaboration:  entity.Collaboration,
		Reference:      entity.Reference,
		CentralityBins: entity.CentralityBins,
		Values:         entity.Values,
		Errors:         entity.Errors,
		Cut:            &domain.KinematicCut{EtaMin: &etaMin, EtaMax: &etaMax, PtMin: &ptMin},
	}, entity.Params)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if _, err := store.Save(ctx, withCut); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "dNch_deta", "Pb-Pb-2760", "ALICE", "1012.1657")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Cut == nil {
		t.Fatalf("kinematic cut lost")
	}
	if *got.Cut.EtaMin != -0.8 || *got.Cut.EtaMax != 0.8 || *got.Cut.PtMin != 0.15 {
		t.Errorf("cut bounds: %+v", got.Cut)
	}
	if got.Cut.PtMax != nil || got.Cut.YMin != nil || got.Cut.YMax != nil {
		t.Errorf("unset cut bounds materialized: %+v", got.Cut)
	}
}

func TestReopenSeesPersistedData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")
	reg := domain.DefaultRegistry()

	store, err := Open(path, reg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Save(context.Background(), newEntity(t, "Pb-Pb-2760", "ALICE", "1012.1657")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path, reg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	loaded, err := reopened.LoadAll(context.Background(), "dNch_deta")
	if err != nil {
		t.Fatalf("LoadAll after reopen: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Values[0] != 1601 {
		t.Fatalf("persisted data lost: %+v", loaded)
	}
}
