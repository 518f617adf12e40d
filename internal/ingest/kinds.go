package ingest

import (
	"fmt"
	"strconv"

	"hicdata/pkg/domain"
)

// KindInfo is the resolved classification of an observable file name.
type KindInfo struct {
	Kind domain.Kind
	// Harmonic is the flow harmonic order n for v_n observables, 0 otherwise.
	Harmonic int
	// DisplayName is a human-readable name for the catalogue entry.
	DisplayName string
}

// KindForObservable maps a conventional observable short name (the file
// base name, e.g. "dNch_deta" or "v22") to its kind. Flow harmonics follow
// the vNM convention: N is the harmonic order, M the cumulant order (2 or
// 4). Only integrated kinds are mapped: the flat data-file formats carry
// one value per centrality bin, so pT-differential results cannot arrive
// through file ingestion and their names stay unrecognized.
func KindForObservable(shortName string) (KindInfo, error) {
	switch shortName {
	case "dNch_deta":
		return KindInfo{Kind: domain.KindMultiplicity, DisplayName: "Charged multiplicity dNch/deta"}, nil
	case "mean_pT":
		return KindInfo{Kind: domain.KindMeanPT, DisplayName: "Mean transverse momentum"}, nil
	case "dET_deta":
		return KindInfo{Kind: domain.KindTransverseEnergy, DisplayName: "Transverse energy dET/deta"}, nil
	case "pT_fluc":
		return KindInfo{Kind: domain.KindPTFluc, DisplayName: "Mean-pT fluctuations"}, nil
	}
	if info, ok := flowKind(shortName); ok {
		return info, nil
	}
	return KindInfo{}, fmt.Errorf("unrecognized observable %q", shortName)
}

// flowKind decodes integrated vNM names: v22, v32, v42, v24.
func flowKind(name string) (KindInfo, bool) {
	if len(name) != 3 || name[0] != 'v' {
		return KindInfo{}, false
	}
	n, err := strconv.Atoi(name[1:2])
	if err != nil || n < 1 {
		return KindInfo{}, false
	}
	var kind domain.Kind
	switch name[2] {
	case '2':
		kind = domain.KindIntegratedVn2
	case '4':
		kind = domain.KindIntegratedVn4
	default:
		return KindInfo{}, false
	}
	display := fmt.Sprintf("Flow harmonic %s{%c}", name[:2], name[2])
	return KindInfo{Kind: kind, Harmonic: n, DisplayName: display}, true
}
