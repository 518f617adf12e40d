// Package seriescodec encodes variable-length numeric series into the
// textual nested-array notation stored in the fact table's TEXT columns.
//
// The encoding is the codec boundary of the store: every encode is verified
// to decode back to the bit-identical sequence before it is handed to the
// database, and persisted text from older writers keeps decoding as long as
// it is valid nested-array notation. Values are written in Go's shortest
// round-trip decimal form and parsed back with strconv, so a write/read
// cycle preserves full float64 precision. NaN and infinities are not
// representable and are rejected at encode time.
package seriescodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// EncodeVector encodes a flat series, e.g. "[1601,1294,966]".
func EncodeVector(v []float64) (string, error) {
	text, err := encode(v)
	if err != nil {
		return "", err
	}
	decoded, err := DecodeVector(text)
	if err != nil {
		return "", fmt.Errorf("round-trip verification: %w", err)
	}
	if !vectorsEqual(v, decoded) {
		return "", fmt.Errorf("round-trip verification: decoded vector differs from input")
	}
	return text, nil
}

// DecodeVector decodes a flat series encoded by EncodeVector.
func DecodeVector(text string) ([]float64, error) {
	var raw []json.Number
	if err := decode(text, &raw); err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, n := range raw {
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// EncodeMatrix encodes a nested series, e.g. "[[0,5],[5,10]]". Rows may be
// ragged; shape constraints belong to the caller.
func EncodeMatrix(m [][]float64) (string, error) {
	text, err := encode(m)
	if err != nil {
		return "", err
	}
	decoded, err := DecodeMatrix(text)
	if err != nil {
		return "", fmt.Errorf("round-trip verification: %w", err)
	}
	if !matricesEqual(m, decoded) {
		return "", fmt.Errorf("round-trip verification: decoded matrix differs from input")
	}
	return text, nil
}

// DecodeMatrix decodes a nested series encoded by EncodeMatrix.
func DecodeMatrix(text string) ([][]float64, error) {
	var raw [][]json.Number
	if err := decode(text, &raw); err != nil {
		return nil, err
	}
	out := make([][]float64, len(raw))
	for i, row := range raw {
		out[i] = make([]float64, len(row))
		for j, n := range row {
			f, err := strconv.ParseFloat(n.String(), 64)
			if err != nil {
				return nil, fmt.Errorf("element [%d][%d]: %w", i, j, err)
			}
			out[i][j] = f
		}
	}
	return out, nil
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decode(text string, target any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return err
	}
	// Trailing content means the column holds more than one value.
	if dec.More() {
		return fmt.Errorf("trailing data after series")
	}
	return nil
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func matricesEqual(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !vectorsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
