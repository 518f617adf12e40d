package domain

// Canonical multiplicity measurement used across the package tests: the
// published ALICE charged-particle dNch/deta in Pb-Pb at 2.76 TeV.
func multiplicityCommon() Common {
	return Common{
		Name:          "Charged multiplicity dNch/deta",
		ShortName:     "dNch_deta",
		System:        "Pb-Pb-2760",
		Collaboration: "ALICE",
		Reference:     Reference{ArXiv: "1012.1657"},
		CentralityBins: []Bin{
			{0, 5}, {5, 10}, {10, 20}, {20, 30}, {30, 40},
			{40, 50}, {50, 60}, {60, 70}, {70, 80},
		},
		Values: []float64{1601, 1294, 966, 649, 426, 261, 149, 76, 35},
		Errors: []float64{60, 49, 37, 23, 15, 9, 6, 4, 2},
	}
}

func multiplicityParams() Params {
	return Params{
		ParticleType:  "charged",
		RapidityRange: &Range{-0.5, 0.5},
		PTRange:       &Range{0.2, 5.0},
	}
}
