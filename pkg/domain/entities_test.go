package domain

import "testing"

func TestParseCollisionSystem(t *testing.T) {
	cases := []struct {
		name string
		want CollisionSystem
	}{
		{"Pb-Pb-2760", CollisionSystem{Name: "Pb-Pb-2760", Projectile: "Pb", Target: "Pb", SqrtS: 2760}},
		{"Au-Au-200", CollisionSystem{Name: "Au-Au-200", Projectile: "Au", Target: "Au", SqrtS: 200}},
		{"p-Pb-5020", CollisionSystem{Name: "p-Pb-5020", Projectile: "p", Target: "Pb", SqrtS: 5020}},
		{"Xe-Xe-5440", CollisionSystem{Name: "Xe-Xe-5440", Projectile: "Xe", Target: "Xe", SqrtS: 5440}},
	}
	for _, tc := range cases {
		got, err := ParseCollisionSystem(tc.name)
		if err != nil {
			t.Fatalf("ParseCollisionSystem(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("ParseCollisionSystem(%q) = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestParseCollisionSystemRejectsMalformed(t *testing.T) {
	for _, name := range []string{
		"", "PbPb2760", "Pb-Pb", "Pb-Pb-", "Pb-Pb-zero",
		"Pb-Pb-0", "Pb-Pb--200", "-Pb-200", "Pb--200",
	} {
		if _, err := ParseCollisionSystem(name); err == nil {
			t.Errorf("ParseCollisionSystem(%q): expected error", name)
		}
	}
}

func TestNewCollisionSystemCanonicalName(t *testing.T) {
	sys := NewCollisionSystem("Pb", "Pb", 2760)
	if sys.Name != "Pb-Pb-2760" {
		t.Fatalf("got name %q, want Pb-Pb-2760", sys.Name)
	}
	parsed, err := ParseCollisionSystem(sys.Name)
	if err != nil {
		t.Fatalf("parse derived name: %v", err)
	}
	if parsed != sys {
		t.Fatalf("derived name does not parse back: %+v vs %+v", parsed, sys)
	}
}

func TestBinAndRangeAccessors(t *testing.T) {
	b := Bin{20, 30}
	if b.Low() != 20 || b.High() != 30 {
		t.Fatalf("bin accessors: got (%v, %v)", b.Low(), b.High())
	}
	r := Range{-0.5, 0.5}
	if r.Min() != -0.5 || r.Max() != 0.5 {
		t.Fatalf("range accessors: got (%v, %v)", r.Min(), r.Max())
	}
}
