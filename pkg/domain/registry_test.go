package domain

import (
	"errors"
	"testing"
)

func TestDefaultRegistryKinds(t *testing.T) {
	reg := DefaultRegistry()
	want := []Kind{
		KindMultiplicity, KindMeanPT,
		KindIntegratedVn2, KindIntegratedVn4,
		KindPtDifferentialVn2, KindPtDifferentialVn4,
		KindTransverseEnergy, KindPTFluc,
	}
	got := reg.Kinds()
	if len(got) != len(want) {
		t.Fatalf("got %d kinds, want %d", len(got), len(want))
	}
	for i, kind := range want {
		if got[i] != kind {
			t.Errorf("kind %d: got %s, want %s", i, got[i], kind)
		}
	}
}

func TestRequirementsOfOrderedAndCopied(t *testing.T) {
	reg := DefaultRegistry()
	specs, err := reg.RequirementsOf(KindIntegratedVn2)
	if err != nil {
		t.Fatalf("RequirementsOf: %v", err)
	}
	want := []ParamSpec{
		{Name: ParamNameHarmonicN, Type: ParamHarmonic},
		{Name: ParamNameRapidityRange, Type: ParamRange},
		{Name: ParamNamePTRange, Type: ParamRange},
	}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	for i, spec := range want {
		if specs[i] != spec {
			t.Errorf("spec %d: got %+v, want %+v", i, specs[i], spec)
		}
	}

	// Mutating the returned slice must not affect the registry.
	specs[0].Name = "mutated"
	again, err := reg.RequirementsOf(KindIntegratedVn2)
	if err != nil {
		t.Fatalf("RequirementsOf: %v", err)
	}
	if again[0].Name != ParamNameHarmonicN {
		t.Fatalf("registry state leaked through returned slice")
	}
}

func TestRequirementsOfUnknownKind(t *testing.T) {
	reg := DefaultRegistry()
	_, err := reg.RequirementsOf(Kind("SpectraRatio"))
	var unknown UnknownKindError
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want UnknownKindError", err)
	}
	if unknown.Kind != "SpectraRatio" {
		t.Fatalf("error names kind %q, want SpectraRatio", unknown.Kind)
	}
}

func TestDefinePanicsOnRedefinition(t *testing.T) {
	reg := NewRegistry()
	reg.Define(KindMultiplicity, ParamSpec{Name: ParamNameParticleType, Type: ParamString})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on redefinition")
		}
	}()
	reg.Define(KindMultiplicity)
}

func TestDifferential(t *testing.T) {
	reg := DefaultRegistry()
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindMultiplicity, false},
		{KindIntegratedVn2, false},
		{KindPtDifferentialVn2, true},
		{KindPtDifferentialVn4, true},
	}
	for _, tc := range cases {
		got, err := reg.Differential(tc.kind)
		if err != nil {
			t.Fatalf("Differential(%s): %v", tc.kind, err)
		}
		if got != tc.want {
			t.Errorf("Differential(%s) = %v, want %v", tc.kind, got, tc.want)
		}
	}
	if _, err := reg.Differential(Kind("nope")); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
