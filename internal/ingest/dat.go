// Package ingest parses experimental data files into validated observable
// entities and feeds them to the catalogue service. It understands the
// conventional repository layout <system>/<collaboration>/<observable>.dat
// with five whitespace-separated columns per row (cent_low cent_high
// cent_mid value error) and a '#'-prefixed reference header, plus a simple
// HEPData-style CSV export. Files compressed with gzip (.gz) are read
// transparently.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// DatRow is one centrality class of a .dat table.
type DatRow struct {
	CentLow  float64
	CentHigh float64
	CentMid  float64
	Value    float64
	Error    float64
}

// DatTable is the parsed content of one .dat file.
type DatTable struct {
	// Reference is the first '#' header line with the marker stripped,
	// conventionally the arXiv id or DOI of the measurement.
	Reference string
	Rows      []DatRow
}

// ParseDat reads a whitespace-separated data table. Header lines start
// with '#'; the first one is taken as the bibliographic reference. Rows
// need at least five columns; extra columns are ignored.
func ParseDat(r io.Reader) (DatTable, error) {
	var table DatTable
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if table.Reference == "" {
				table.Reference = strings.TrimSpace(strings.TrimPrefix(text, "#"))
			}
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 5 {
			return DatTable{}, fmt.Errorf("line %d: got %d columns, want at least 5", line, len(fields))
		}
		var row DatRow
		targets := []*float64{&row.CentLow, &row.CentHigh, &row.CentMid, &row.Value, &row.Error}
		for i, target := range targets {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return DatTable{}, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			*target = v
		}
		table.Rows = append(table.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return DatTable{}, err
	}
	if len(table.Rows) == 0 {
		return DatTable{}, fmt.Errorf("no data rows")
	}
	return table, nil
}

// openData opens a data file, transparently decompressing .gz inputs. The
// returned closer closes both the decompressor and the file.
func openData(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) != ".gz" {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return &gzipReadCloser{zr: zr, f: f}, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	err := g.zr.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}
