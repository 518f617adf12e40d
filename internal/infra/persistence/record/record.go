// Package record maps observable entities onto the columns of the
// experimental_results fact table and back. Both SQL backends share it so
// that the payload encoding and the reconstruction path cannot drift apart.
package record

import (
	"encoding/json"
	"errors"
	"fmt"

	"hicdata/internal/seriescodec"
	"hicdata/pkg/domain"
)

// ErrDuplicateResult reports an attempt to save a measurement whose
// (observable, system, collaboration, reference) identity is already
// stored. Both SQL backends map their unique-constraint violation on the
// fact table to this sentinel.
var ErrDuplicateResult = errors.New("experimental result already stored")

// Encoded holds the textual column values of one fact row together with the
// dimension natural keys the store resolves to surrogate ids.
type Encoded struct {
	SystemName     string
	Collaboration  string
	ObservableName string
	Kind           string
	DisplayName    string
	CentralityBins string
	Value          string
	Error          string
	Reference      string
	TriggerInfo    string
	Params         string
}

// Row is the raw column data of one fact row joined against its dimensions,
// as scanned from either SQL backend.
type Row struct {
	ResultID       int64
	SystemName     string
	Collaboration  string
	ObservableName string
	Kind           string
	DisplayName    string
	CentralityBins string
	Value          string
	Error          string
	Reference      string
	TriggerInfo    string
	Params         string
	Cut            *domain.KinematicCut
}

// Encode serializes an entity's variable-shape payload into column text.
// Any failure is a domain.SerializationError naming the column; the caller
// must abort its transaction rather than persist a partial payload.
func Encode(reg *domain.Registry, e domain.ObservableEntity) (Encoded, error) {
	differential, err := reg.Differential(e.Kind)
	if err != nil {
		return Encoded{}, err
	}
	enc := Encoded{
		SystemName:     e.System.Name,
		Collaboration:  e.Collaboration,
		ObservableName: e.ShortName,
		Kind:           string(e.Kind),
		DisplayName:    e.Name,
	}
	if enc.CentralityBins, err = seriescodec.EncodeMatrix(binsToMatrix(e.CentralityBins)); err != nil {
		return Encoded{}, domain.SerializationError{Column: "centrality_bins", Err: err}
	}
	if differential {
		if enc.Value, err = seriescodec.EncodeMatrix(e.DiffValues); err != nil {
			return Encoded{}, domain.SerializationError{Column: "value", Err: err}
		}
		if enc.Error, err = seriescodec.EncodeMatrix(e.DiffErrors); err != nil {
			return Encoded{}, domain.SerializationError{Column: "error", Err: err}
		}
	} else {
		if enc.Value, err = seriescodec.EncodeVector(e.Values); err != nil {
			return Encoded{}, domain.SerializationError{Column: "value", Err: err}
		}
		if enc.Error, err = seriescodec.EncodeVector(e.Errors); err != nil {
			return Encoded{}, domain.SerializationError{Column: "error", Err: err}
		}
	}
	if enc.Reference, err = encodeJSON("reference", e.Reference); err != nil {
		return Encoded{}, err
	}
	trigger := e.Trigger
	if trigger == nil {
		trigger = domain.TriggerInfo{}
	}
	if enc.TriggerInfo, err = encodeJSON("trigger_info", trigger); err != nil {
		return Encoded{}, err
	}
	if enc.Params, err = encodeJSON("params", e.Params); err != nil {
		return Encoded{}, err
	}
	return enc, nil
}

// Decode reconstructs the entity a fact row was written from, revalidating
// it through domain.Construct so a corrupted payload surfaces as an error
// instead of an inconsistent entity.
func Decode(reg *domain.Registry, row Row) (domain.ObservableEntity, error) {
	kind := domain.Kind(row.Kind)
	differential, err := reg.Differential(kind)
	if err != nil {
		return domain.ObservableEntity{}, err
	}

	binsMatrix, err := seriescodec.DecodeMatrix(row.CentralityBins)
	if err != nil {
		return domain.ObservableEntity{}, domain.SerializationError{Column: "centrality_bins", Err: err}
	}
	bins, err := matrixToBins(binsMatrix)
	if err != nil {
		return domain.ObservableEntity{}, domain.SerializationError{Column: "centrality_bins", Err: err}
	}

	common := domain.Common{
		Name:           row.DisplayName,
		ShortName:      row.ObservableName,
		System:         row.SystemName,
		Collaboration:  row.Collaboration,
		CentralityBins: bins,
		Cut:            row.Cut,
	}
	if differential {
		if common.DiffValues, err = seriescodec.DecodeMatrix(row.Value); err != nil {
			return domain.ObservableEntity{}, domain.SerializationError{Column: "value", Err: err}
		}
		if common.DiffErrors, err = seriescodec.DecodeMatrix(row.Error); err != nil {
			return domain.ObservableEntity{}, domain.SerializationError{Column: "error", Err: err}
		}
	} else {
		if common.Values, err = seriescodec.DecodeVector(row.Value); err != nil {
			return domain.ObservableEntity{}, domain.SerializationError{Column: "value", Err: err}
		}
		if common.Errors, err = seriescodec.DecodeVector(row.Error); err != nil {
			return domain.ObservableEntity{}, domain.SerializationError{Column: "error", Err: err}
		}
	}
	if err := decodeJSON("reference", row.Reference, &common.Reference); err != nil {
		return domain.ObservableEntity{}, err
	}
	trigger := domain.TriggerInfo{}
	if err := decodeJSON("trigger_info", row.TriggerInfo, &trigger); err != nil {
		return domain.ObservableEntity{}, err
	}
	if len(trigger) > 0 {
		common.Trigger = trigger
	}
	var params domain.Params
	if err := decodeJSON("params", row.Params, &params); err != nil {
		return domain.ObservableEntity{}, err
	}
	return domain.Construct(reg, kind, common, params)
}

func encodeJSON(column string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", domain.SerializationError{Column: column, Err: err}
	}
	return string(data), nil
}

func decodeJSON(column, text string, target any) error {
	if err := json.Unmarshal([]byte(text), target); err != nil {
		return domain.SerializationError{Column: column, Err: err}
	}
	return nil
}

func binsToMatrix(bins []domain.Bin) [][]float64 {
	out := make([][]float64, len(bins))
	for i, b := range bins {
		out[i] = []float64{b[0], b[1]}
	}
	return out
}

func matrixToBins(m [][]float64) ([]domain.Bin, error) {
	out := make([]domain.Bin, len(m))
	for i, row := range m {
		if len(row) != 2 {
			return nil, fmt.Errorf("bin %d has %d edges, want 2", i, len(row))
		}
		out[i] = domain.Bin{row[0], row[1]}
	}
	return out, nil
}
