// Package ingest turns raw CSV batches into unified records. Each file is
// normalized independently and accepted or rejected as a whole: the first
// invalid row aborts its file, while rows missing geography are dropped
// without error.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/c360studio/demoscope/record"
)

// demoAge0to5Column is an optional demographic column; a positive value is
// folded into the 0-5 bucket.
const demoAge0to5Column = "demo_age_0_5"

// Table is one parsed CSV: a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadTable parses CSV bytes into a Table. Rows may have ragged lengths;
// short rows read as empty fields downstream.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return &Table{Headers: headers, Rows: rows[1:]}, nil
}

// Result is a successfully normalized file: its records plus the descriptor
// summarizing it.
type Result struct {
	Records    []record.Record
	Descriptor record.FileDescriptor
}

// Normalize validates and converts one parsed CSV table into unified
// records. It fails on the first invalid row; prior accepted rows are
// discarded with the file. Row numbers in errors count the header as row 1.
func Normalize(t *Table, batchID, fileName string, size int64) (*Result, error) {
	kind, err := DetectSchema(t.Headers)
	if err != nil {
		return nil, fmt.Errorf("file %q is invalid: %w", fileName, err)
	}

	col := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		col[h] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]record.Record, 0, len(t.Rows))
	var earliest, latest record.Date

	for i, row := range t.Rows {
		rowNum := i + 2

		if countNonEmpty(row) < 2 {
			continue
		}

		state := field(row, "state")
		district := field(row, "district")
		if state == "" || district == "" {
			// Missing geography is a silent drop, not an error.
			continue
		}

		date, err := record.ParseDate(field(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("file %q: row %d: %w", fileName, rowNum, err)
		}

		pincode := field(row, "pincode")
		if pincode != "" && !isPincode(pincode) {
			return nil, fmt.Errorf("file %q: row %d: invalid pincode %q", fileName, rowNum, pincode)
		}

		rec := record.Record{
			FileID:   batchID,
			Date:     date,
			State:    state,
			District: district,
			Pincode:  pincode,
			Kind:     kind,
		}

		counts := make([]int, len(columnsByKind[kind]))
		for j, name := range columnsByKind[kind] {
			n, err := strconv.Atoi(field(row, name))
			if err != nil {
				return nil, fmt.Errorf("file %q: row %d: numeric counts required for age groups", fileName, rowNum)
			}
			counts[j] = n
		}

		switch kind {
		case record.KindDemographic:
			demo := &record.DemoCounts{Age5to17: counts[0], Age17Plus: counts[1]}
			rec.TotalPopulation = counts[0] + counts[1]
			if raw := field(row, demoAge0to5Column); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil {
					return nil, fmt.Errorf("file %q: row %d: numeric counts required for age groups", fileName, rowNum)
				}
				if n > 0 {
					demo.Age0to5 = &n
				}
				rec.TotalPopulation += n
			}
			rec.Demo = demo
		case record.KindBiometric:
			rec.Bio = &record.BioCounts{Age5to17: counts[0], Age17Plus: counts[1]}
			rec.TotalPopulation = counts[0] + counts[1]
		case record.KindEnrollment:
			rec.Enrol = &record.EnrolCounts{Age0to5: counts[0], Age5to17: counts[1], Age18Plus: counts[2]}
			rec.TotalPopulation = counts[0] + counts[1] + counts[2]
		}

		if raw := field(row, "lat"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.Lat = &v
			}
		}
		if raw := field(row, "lng"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.Lng = &v
			}
		}

		if earliest.IsZero() || date.Before(earliest) {
			earliest = date
		}
		if latest.IsZero() || date.After(latest) {
			latest = date
		}

		records = append(records, rec)
	}

	desc := record.FileDescriptor{
		ID:          batchID,
		Name:        fileName,
		Size:        size,
		RecordCount: len(records),
		Type:        kind,
	}
	if !earliest.IsZero() {
		desc.DateRange = &record.DateRange{Earliest: earliest, Latest: latest}
	}

	return &Result{Records: records, Descriptor: desc}, nil
}

func countNonEmpty(row []string) int {
	n := 0
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func isPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
