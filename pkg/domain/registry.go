package domain

import "fmt"

// Kind identifies an observable kind registered in a Registry.
type Kind string

// Observable kinds of the default registry.
const (
	// KindMultiplicity is the charged or identified particle multiplicity
	// per unit (pseudo)rapidity.
	KindMultiplicity Kind = "Multiplicity"
	// KindMeanPT is the mean transverse momentum.
	KindMeanPT Kind = "MeanPT"
	// KindIntegratedVn2 is the pT-integrated flow harmonic from
	// two-particle cumulants.
	KindIntegratedVn2 Kind = "IntegratedVn2"
	// KindIntegratedVn4 is the pT-integrated flow harmonic from
	// four-particle cumulants.
	KindIntegratedVn4 Kind = "IntegratedVn4"
	// KindPtDifferentialVn2 is the pT-differential flow harmonic from
	// two-particle cumulants.
	KindPtDifferentialVn2 Kind = "PtDifferentialVn2"
	// KindPtDifferentialVn4 is the pT-differential flow harmonic from
	// four-particle cumulants.
	KindPtDifferentialVn4 Kind = "PtDifferentialVn4"
	// KindTransverseEnergy is the transverse energy per unit rapidity.
	KindTransverseEnergy Kind = "TransverseEnergy"
	// KindPTFluc is the event-by-event mean-pT fluctuation measure.
	KindPTFluc Kind = "PTFluc"
)

// ParamType is the semantic type of a required observable parameter.
type ParamType string

// Semantic parameter types understood by the validator.
const (
	// ParamString is an enumerated non-empty string (e.g. a particle type).
	ParamString ParamType = "string"
	// ParamRange is a two-element ascending numeric interval.
	ParamRange ParamType = "range"
	// ParamHarmonic is a positive integer harmonic order.
	ParamHarmonic ParamType = "harmonic"
	// ParamBins is a non-empty sequence of ascending two-element bins. A
	// kind requiring a ParamBins parameter is differential: its series
	// carries one row of measurements per centrality bin.
	ParamBins ParamType = "bins"
)

// Canonical required-parameter names.
const (
	ParamNameParticleType  = "particle_type"
	ParamNameRapidityRange = "rapidity_range"
	ParamNamePTRange       = "pT_range"
	ParamNameHarmonicN     = "harmonic_n"
	ParamNamePTBins        = "pT_bins"
)

// ParamSpec declares one required parameter of an observable kind.
type ParamSpec struct {
	Name string
	Type ParamType
}

// Registry declares, per observable kind, the ordered list of required
// parameters. It is populated once during startup and read-only afterwards;
// it performs no I/O.
type Registry struct {
	kinds map[Kind][]ParamSpec
	order []Kind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Kind][]ParamSpec)}
}

// Define registers a kind with its ordered required parameters. Redefining
// a kind is a programming error and panics, keeping registration a static,
// startup-only concern.
func (r *Registry) Define(kind Kind, params ...ParamSpec) {
	if _, ok := r.kinds[kind]; ok {
		panic(fmt.Sprintf("observable kind %q defined twice", string(kind)))
	}
	specs := make([]ParamSpec, len(params))
	copy(specs, params)
	r.kinds[kind] = specs
	r.order = append(r.order, kind)
}

// RequirementsOf returns the ordered required parameters of kind, or an
// UnknownKindError when the kind was never defined.
func (r *Registry) RequirementsOf(kind Kind) ([]ParamSpec, error) {
	specs, ok := r.kinds[kind]
	if !ok {
		return nil, UnknownKindError{Kind: kind}
	}
	out := make([]ParamSpec, len(specs))
	copy(out, specs)
	return out, nil
}

// Kinds returns the registered kinds in definition order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

// Differential reports whether the kind's series is pT-differential, i.e.
// its requirements include a bin-sequence parameter.
func (r *Registry) Differential(kind Kind) (bool, error) {
	specs, err := r.RequirementsOf(kind)
	if err != nil {
		return false, err
	}
	for _, spec := range specs {
		if spec.Type == ParamBins {
			return true, nil
		}
	}
	return false, nil
}

// DefaultRegistry returns a registry populated with the standard observable
// kinds of the catalogue.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Define(KindMultiplicity,
		ParamSpec{Name: ParamNameParticleType, Type: ParamString},
		ParamSpec{Name: ParamNameRapidityRange, Type: ParamRange},
		ParamSpec{Name: ParamNamePTRange, Type: ParamRange},
	)
	r.Define(KindMeanPT,
		ParamSpec{Name: ParamNameParticleType, Type: ParamString},
		ParamSpec{Name: ParamNameRapidityRange, Type: ParamRange},
		ParamSpec{Name: ParamNamePTRange, Type: ParamRange},
	)
	r.Define(KindIntegratedVn2,
		ParamSpec{Name: ParamNameHarmonicN, Type: ParamHarmonic},
		ParamSpec{Name: ParamNameRapidityRange, Type: ParamRange},
		ParamSpec{Name: ParamNamePTRange, Type: ParamRange},
	)
	r.Define(KindIntegratedVn4,
		ParamSpec{Name: ParamNameHarmonicN, Type: ParamHarmonic},
		ParamSpec{Name: ParamNameRapidityRange, Type: ParamRange},
		ParamSpec{Name: ParamNamePTRange, Type: ParamRange},
	)
	r.Define(KindPtDifferentialVn2,
		ParamSpec{Name: ParamNameHarmonicN, Type: ParamHarmonic},
		ParamSpec{Name: ParamNameRapidityRange, Type: ParamRange},
		ParamSpec{Name: ParamNamePTBins, Type: ParamBins},
	)
	r.Define(KindPtDifferentialVn4,
		ParamSpec{Name: ParamNameHarmonicN, Type: ParamHarmonic},
		ParamSpec{Name: ParamNameRapidityRange, Type: ParamRange},
		ParamSpec{Name: ParamNamePTBins, Type: ParamBins},
	)
	r.Define(KindTransverseEnergy,
		ParamSpec{Name: ParamNameParticleType, Type: ParamString},
		ParamSpec{Name: ParamNameRapidityRange, Type: ParamRange},
		ParamSpec{Name: ParamNamePTRange, Type: ParamRange},
	)
	r.Define(KindPTFluc,
		ParamSpec{Name: ParamNameParticleType, Type: ParamString},
		ParamSpec{Name: ParamNameRapidityRange, Type: ParamRange},
		ParamSpec{Name: ParamNamePTRange, Type: ParamRange},
	)
	return r
}
