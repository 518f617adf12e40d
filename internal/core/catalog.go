package core

import (
	"context"

	"hicdata/pkg/domain"
)

// Series is the plain measurement view handed to plotting callers: the
// binned values of one stored result without storage concerns. Integrated
// observables populate Values/Errors; differential ones populate
// DiffValues/DiffErrors indexed by Params.PTBins.
type Series struct {
	ShortName      string
	Name           string
	Kind           domain.Kind
	System         string
	Collaboration  string
	Reference      domain.Reference
	CentralityBins []domain.Bin
	Values         []float64
	Errors         []float64
	DiffValues     [][]float64
	DiffErrors     [][]float64
	Params         domain.Params
}

// Catalog is the external read API. It translates the store's not-found
// error into an availability boolean so callers can branch on data
// presence without inspecting storage error kinds.
type Catalog struct {
	svc *Service
}

// NewCatalog wraps a service for read-only consumption.
func NewCatalog(svc *Service) *Catalog { return &Catalog{svc: svc} }

// Lookup returns every measured series recorded under the observable short
// name. ok is false when the catalogue has no data for the name; err is
// reserved for storage faults.
func (c *Catalog) Lookup(ctx context.Context, shortName string) (series []Series, ok bool, err error) {
	entities, err := c.svc.Observable(ctx, shortName)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	series = make([]Series, 0, len(entities))
	for _, e := range entities {
		series = append(series, seriesOf(e))
	}
	return series, true, nil
}

func seriesOf(e domain.ObservableEntity) Series {
	return Series{
		ShortName:      e.ShortName,
		Name:           e.Name,
		Kind:           e.Kind,
		System:         e.System.Name,
		Collaboration:  e.Collaboration,
		Reference:      e.Reference,
		CentralityBins: e.CentralityBins,
		Values:         e.Values,
		Errors:         e.Errors,
		DiffValues:     e.DiffValues,
		DiffErrors:     e.DiffErrors,
		Params:         e.Params,
	}
}
