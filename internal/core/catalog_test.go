package core

import (
	"context"
	"fmt"
	"testing"

	"hicdata/pkg/domain"
)

func TestCatalogLookup(t *testing.T) {
	entity := testEntity(t)
	catalog := NewCatalog(NewService(&stubStore{entities: []domain.ObservableEntity{entity}}))

	series, ok, err := catalog.Lookup(context.Background(), "dNch_deta")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatalf("ok = false for stored observable")
	}
	if len(series) != 1 {
		t.Fatalf("got %d series, want 1", len(series))
	}
	got := series[0]
	if got.ShortName != "dNch_deta" || got.System != "Pb-Pb-2760" || got.Collaboration != "ALICE" {
		t.Errorf("series identity: %+v", got)
	}
	if len(got.Values) != 1 || got.Values[0] != 1601 {
		t.Errorf("series values: %v", got.Values)
	}
	if got.Params.ParticleType != "charged" {
		t.Errorf("series params: %+v", got.Params)
	}
}

func TestCatalogLookupAbsentObservable(t *testing.T) {
	catalog := NewCatalog(NewService(&stubStore{
		loadErr: domain.NotFoundError{Observable: "nonexistent_observable"},
	}))
	series, ok, err := catalog.Lookup(context.Background(), "nonexistent_observable")
	if err != nil {
		t.Fatalf("not-found must not surface as error, got %v", err)
	}
	if ok || series != nil {
		t.Fatalf("ok=%v series=%v, want false and nil", ok, series)
	}
}

func TestCatalogLookupStorageFault(t *testing.T) {
	catalog := NewCatalog(NewService(&stubStore{loadErr: fmt.Errorf("io timeout")}))
	_, ok, err := catalog.Lookup(context.Background(), "dNch_deta")
	if err == nil {
		t.Fatalf("storage fault must surface as error")
	}
	if ok {
		t.Fatalf("ok = true alongside error")
	}
}
