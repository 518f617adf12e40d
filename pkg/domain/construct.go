package domain

import "fmt"

// Common carries the kind-independent fields of a measurement handed to
// Construct. System is the canonical collision-system name (e.g.
// "Pb-Pb-2760"). Integrated kinds populate Values/Errors; differential
// kinds populate DiffValues/DiffErrors with one row per centrality bin.
type Common struct {
	Name           string
	ShortName      string
	System         string
	Collaboration  string
	Reference      Reference
	CentralityBins []Bin
	Values         []float64
	Errors         []float64
	DiffValues     [][]float64
	DiffErrors     [][]float64
	Trigger        TriggerInfo
	Cut            *KinematicCut
}

// Construct validates common fields and kind-specific parameters against
// the registry and yields an immutable ObservableEntity. It fails fast with
// a ValidationError naming the first offending field, or an
// UnknownKindError when the kind was never defined. Nothing is coerced and
// parameters set without being required by the kind are rejected.
func Construct(reg *Registry, kind Kind, common Common, params Params) (ObservableEntity, error) {
	specs, err := reg.RequirementsOf(kind)
	if err != nil {
		return ObservableEntity{}, err
	}
	if common.ShortName == "" {
		return ObservableEntity{}, ValidationError{Field: "short_name", Reason: "must not be empty"}
	}
	if common.Collaboration == "" {
		return ObservableEntity{}, ValidationError{Field: "collaboration", Reason: "must not be empty"}
	}
	system, err := ParseCollisionSystem(common.System)
	if err != nil {
		return ObservableEntity{}, ValidationError{Field: "collision_system", Reason: err.Error()}
	}
	if err := validateParams(specs, kind, params); err != nil {
		return ObservableEntity{}, err
	}
	differential := false
	for _, spec := range specs {
		if spec.Type == ParamBins {
			differential = true
		}
	}
	if err := validateSeries(common, params, differential); err != nil {
		return ObservableEntity{}, err
	}

	entity := ObservableEntity{
		Kind:           kind,
		Name:           common.Name,
		ShortName:      common.ShortName,
		System:         system,
		Collaboration:  common.Collaboration,
		Reference:      common.Reference,
		CentralityBins: cloneBins(common.CentralityBins),
		Trigger:        cloneTrigger(common.Trigger),
		Params:         cloneParams(params),
		Cut:            cloneCut(common.Cut),
	}
	if differential {
		entity.DiffValues = cloneMatrix(common.DiffValues)
		entity.DiffErrors = cloneMatrix(common.DiffErrors)
	} else {
		entity.Values = cloneVector(common.Values)
		entity.Errors = cloneVector(common.Errors)
	}
	return entity, nil
}

// validateParams checks each declared requirement in order against the
// supplied Params and then rejects any populated field the kind does not
// require. It is a pure function of the declared requirements.
func validateParams(specs []ParamSpec, kind Kind, p Params) error {
	required := make(map[string]bool, len(specs))
	for _, spec := range specs {
		required[spec.Name] = true
		switch spec.Name {
		case ParamNameParticleType:
			if p.ParticleType == "" {
				return missingParam(spec.Name, kind)
			}
		case ParamNameRapidityRange:
			if p.RapidityRange == nil {
				return missingParam(spec.Name, kind)
			}
			if err := checkRange(spec.Name, *p.RapidityRange); err != nil {
				return err
			}
		case ParamNamePTRange:
			if p.PTRange == nil {
				return missingParam(spec.Name, kind)
			}
			if err := checkRange(spec.Name, *p.PTRange); err != nil {
				return err
			}
		case ParamNameHarmonicN:
			if p.HarmonicN == 0 {
				return missingParam(spec.Name, kind)
			}
			if p.HarmonicN < 1 {
				return ValidationError{Field: spec.Name, Reason: "harmonic order must be a positive integer"}
			}
		case ParamNamePTBins:
			if len(p.PTBins) == 0 {
				return missingParam(spec.Name, kind)
			}
			for i, bin := range p.PTBins {
				if !(bin[0] < bin[1]) {
					return ValidationError{
						Field:  spec.Name,
						Reason: fmt.Sprintf("bin %d is not an ascending interval", i),
					}
				}
			}
		default:
			return ValidationError{Field: spec.Name, Reason: "parameter has no typed representation"}
		}
	}
	if !required[ParamNameParticleType] && p.ParticleType != "" {
		return extraParam(ParamNameParticleType, kind)
	}
	if !required[ParamNameRapidityRange] && p.RapidityRange != nil {
		return extraParam(ParamNameRapidityRange, kind)
	}
	if !required[ParamNamePTRange] && p.PTRange != nil {
		return extraParam(ParamNamePTRange, kind)
	}
	if !required[ParamNameHarmonicN] && p.HarmonicN != 0 {
		return extraParam(ParamNameHarmonicN, kind)
	}
	if !required[ParamNamePTBins] && len(p.PTBins) != 0 {
		return extraParam(ParamNamePTBins, kind)
	}
	return nil
}

func validateSeries(common Common, params Params, differential bool) error {
	bins := common.CentralityBins
	if len(bins) == 0 {
		return ValidationError{Field: "centrality_bins", Reason: "must not be empty"}
	}
	for i, bin := range bins {
		if !(bin[0] < bin[1]) {
			return ValidationError{
				Field:  "centrality_bins",
				Reason: fmt.Sprintf("bin %d is not an ascending interval", i),
			}
		}
	}
	if differential {
		if len(common.Values) != 0 || len(common.Errors) != 0 {
			return ValidationError{Field: "values", Reason: "differential observables use diff_values, not values"}
		}
		if len(common.DiffValues) != len(bins) {
			return ValidationError{
				Field:  "diff_values",
				Reason: fmt.Sprintf("got %d rows for %d centrality bins", len(common.DiffValues), len(bins)),
			}
		}
		if len(common.DiffErrors) != len(bins) {
			return ValidationError{
				Field:  "diff_errors",
				Reason: fmt.Sprintf("got %d rows for %d centrality bins", len(common.DiffErrors), len(bins)),
			}
		}
		width := len(params.PTBins)
		for i := range common.DiffValues {
			if len(common.DiffValues[i]) != width {
				return ValidationError{
					Field:  "diff_values",
					Reason: fmt.Sprintf("row %d has %d entries for %d pT bins", i, len(common.DiffValues[i]), width),
				}
			}
			if len(common.DiffErrors[i]) != width {
				return ValidationError{
					Field:  "diff_errors",
					Reason: fmt.Sprintf("row %d has %d entries for %d pT bins", i, len(common.DiffErrors[i]), width),
				}
			}
			for j, e := range common.DiffErrors[i] {
				if e < 0 {
					return ValidationError{
						Field:  "diff_errors",
						Reason: fmt.Sprintf("entry [%d][%d] is negative", i, j),
					}
				}
			}
		}
		return nil
	}
	if len(common.DiffValues) != 0 || len(common.DiffErrors) != 0 {
		return ValidationError{Field: "diff_values", Reason: "integrated observables use values, not diff_values"}
	}
	if len(common.Values) != len(bins) {
		return ValidationError{
			Field:  "values",
			Reason: fmt.Sprintf("got %d values for %d centrality bins", len(common.Values), len(bins)),
		}
	}
	if len(common.Errors) != len(bins) {
		return ValidationError{
			Field:  "errors",
			Reason: fmt.Sprintf("got %d errors for %d centrality bins", len(common.Errors), len(bins)),
		}
	}
	for i, e := range common.Errors {
		if e < 0 {
			return ValidationError{Field: "errors", Reason: fmt.Sprintf("entry %d is negative", i)}
		}
	}
	return nil
}

func missingParam(name string, kind Kind) error {
	return ValidationError{Field: name, Reason: fmt.Sprintf("required parameter for kind %s is missing", string(kind))}
}

func extraParam(name string, kind Kind) error {
	return ValidationError{Field: name, Reason: fmt.Sprintf("not a parameter of kind %s", string(kind))}
}

func checkRange(field string, r Range) error {
	if !(r[0] < r[1]) {
		return ValidationError{Field: field, Reason: "range bounds must be ascending"}
	}
	return nil
}

func cloneVector(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = cloneVector(row)
	}
	return out
}

func cloneBins(bins []Bin) []Bin {
	if bins == nil {
		return nil
	}
	out := make([]Bin, len(bins))
	copy(out, bins)
	return out
}

// cloneTrigger normalizes an empty map to nil so that an entity carries
// trigger metadata either as a populated map or not at all; a stored and
// reloaded entity then compares equal regardless of which empty form the
// caller passed.
func cloneTrigger(t TriggerInfo) TriggerInfo {
	if len(t) == 0 {
		return nil
	}
	out := make(TriggerInfo, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func cloneParams(p Params) Params {
	out := p
	if p.RapidityRange != nil {
		r := *p.RapidityRange
		out.RapidityRange = &r
	}
	if p.PTRange != nil {
		r := *p.PTRange
		out.PTRange = &r
	}
	out.PTBins = cloneBins(p.PTBins)
	return out
}

func cloneCut(c *KinematicCut) *KinematicCut {
	if c == nil {
		return nil
	}
	out := KinematicCut{}
	clone := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		f := *v
		return &f
	}
	out.EtaMin = clone(c.EtaMin)
	out.EtaMax = clone(c.EtaMax)
	out.PtMin = clone(c.PtMin)
	out.PtMax = clone(c.PtMax)
	out.YMin = clone(c.YMin)
	out.YMax = clone(c.YMax)
	return &out
}
