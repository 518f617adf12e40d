package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvColumns are the headers a HEPData-style export must carry. cent_mid
// is optional; when absent it is derived as the bin midpoint.
var csvColumns = []string{"cent_low", "cent_high", "val", "err"}

// ParseCSV reads a comma-separated export with a header row into the same
// table shape as ParseDat. The reference, when present, comes from a
// "reference" column on the first data row.
func ParseCSV(r io.Reader) (DatTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return DatTable{}, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			return DatTable{}, fmt.Errorf("missing column %q", col)
		}
	}

	var table DatTable
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return DatTable{}, err
		}
		line++
		get := func(col string) (float64, error) {
			i := index[col]
			if i >= len(fields) {
				return 0, fmt.Errorf("line %d: missing %s", line, col)
			}
			return strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		}
		var row DatRow
		if row.CentLow, err = get("cent_low"); err != nil {
			return DatTable{}, fmt.Errorf("line %d cent_low: %w", line, err)
		}
		if row.CentHigh, err = get("cent_high"); err != nil {
			return DatTable{}, fmt.Errorf("line %d cent_high: %w", line, err)
		}
		if row.Value, err = get("val"); err != nil {
			return DatTable{}, fmt.Errorf("line %d val: %w", line, err)
		}
		if row.Error, err = get("err"); err != nil {
			return DatTable{}, fmt.Errorf("line %d err: %w", line, err)
		}
		if i, ok := index["cent_mid"]; ok && i < len(fields) {
			if row.CentMid, err = strconv.ParseFloat(strings.TrimSpace(fields[i]), 64); err != nil {
				return DatTable{}, fmt.Errorf("line %d cent_mid: %w", line, err)
			}
		} else {
			row.CentMid = (row.CentLow + row.CentHigh) / 2
		}
		if table.Reference == "" {
			if i, ok := index["reference"]; ok && i < len(fields) {
				table.Reference = strings.TrimSpace(fields[i])
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if len(table.Rows) == 0 {
		return DatTable{}, fmt.Errorf("no data rows")
	}
	return table, nil
}
