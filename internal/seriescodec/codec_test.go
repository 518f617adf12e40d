package seriescodec

import (
	"math"
	"strings"
	"testing"
)

func TestVectorRoundTripBitExact(t *testing.T) {
	cases := [][]float64{
		{1601, 1294, 966, 649, 426, 261, 149, 76, 35},
		{math.Pi, math.E, math.Sqrt2},
		{1e-308, 5e-324, 1.7976931348623157e308},
		{0, math.Copysign(0, -1)},
		{-0.5, 0.5, 0.1 + 0.2},
		{},
	}
	for _, in := range cases {
		text, err := EncodeVector(in)
		if err != nil {
			t.Fatalf("EncodeVector(%v): %v", in, err)
		}
		out, err := DecodeVector(text)
		if err != nil {
			t.Fatalf("DecodeVector(%q): %v", text, err)
		}
		if len(out) != len(in) {
			t.Fatalf("length: got %d, want %d", len(out), len(in))
		}
		for i := range in {
			if math.Float64bits(out[i]) != math.Float64bits(in[i]) {
				t.Errorf("element %d: %v (%x) != %v (%x)",
					i, out[i], math.Float64bits(out[i]), in[i], math.Float64bits(in[i]))
			}
		}
	}
}

func TestMatrixRoundTripBitExact(t *testing.T) {
	in := [][]float64{
		{0, 5}, {5, 10}, {10, 20},
		{math.Pi, 1e-300},
	}
	text, err := EncodeMatrix(in)
	if err != nil {
		t.Fatalf("EncodeMatrix: %v", err)
	}
	out, err := DecodeMatrix(text)
	if err != nil {
		t.Fatalf("DecodeMatrix(%q): %v", text, err)
	}
	if len(out) != len(in) {
		t.Fatalf("rows: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		for j := range in[i] {
			if math.Float64bits(out[i][j]) != math.Float64bits(in[i][j]) {
				t.Errorf("element [%d][%d]: %v != %v", i, j, out[i][j], in[i][j])
			}
		}
	}
}

func TestEncodeRejectsNonFinite(t *testing.T) {
	for _, in := range [][]float64{
		{math.NaN()},
		{math.Inf(1)},
		{1, math.Inf(-1), 3},
	} {
		if _, err := EncodeVector(in); err == nil {
			t.Errorf("EncodeVector(%v): expected error", in)
		}
	}
	if _, err := EncodeMatrix([][]float64{{1, 2}, {math.NaN()}}); err == nil {
		t.Errorf("EncodeMatrix with NaN: expected error")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, text := range []string{
		"", "[1,2", "[1,\"two\"]", "{\"a\":1}", "[1,2] [3]", "[1,2]trailing",
	} {
		if _, err := DecodeVector(text); err == nil {
			t.Errorf("DecodeVector(%q): expected error", text)
		}
	}
	for _, text := range []string{
		"[[1,2],[3]", "[1,2]", "[[1],{}]", "[[1]] [[2]]",
	} {
		if _, err := DecodeMatrix(text); err == nil {
			t.Errorf("DecodeMatrix(%q): expected error", text)
		}
	}
}

func TestEncodingIsCompactNestedArrayNotation(t *testing.T) {
	text, err := EncodeVector([]float64{1601, 1294, 966})
	if err != nil {
		t.Fatalf("EncodeVector: %v", err)
	}
	if text != "[1601,1294,966]" {
		t.Fatalf("got %q, want [1601,1294,966]", text)
	}
	if strings.ContainsAny(text, " \n\t") {
		t.Fatalf("encoding contains whitespace: %q", text)
	}
	matrix, err := EncodeMatrix([][]float64{{0, 5}, {5, 10}})
	if err != nil {
		t.Fatalf("EncodeMatrix: %v", err)
	}
	if matrix != "[[0,5],[5,10]]" {
		t.Fatalf("got %q, want [[0,5],[5,10]]", matrix)
	}
}

func TestDecodeAcceptsLegacyWhitespace(t *testing.T) {
	// Older writers pretty-printed columns; decoding stays tolerant.
	out, err := DecodeVector(" [ 1601 , 1294 ,\n 966 ] ")
	if err != nil {
		t.Fatalf("DecodeVector: %v", err)
	}
	if len(out) != 3 || out[2] != 966 {
		t.Fatalf("got %v", out)
	}
}
