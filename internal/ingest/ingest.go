// Package ingest turns uploaded spreadsheets into stored location pairs.
//
// Columns are positional: A departure name, B departure address,
// C arrival name, D arrival address. Extra columns are ignored.
package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/neexbeast/routecost/internal/location"
)

const columns = 4

// Options control how a workbook is read.
type Options struct {
	// Sheet names the sheet to read. Empty means the first sheet.
	Sheet string
	// SkipHeader drops the first row of the sheet.
	SkipHeader bool
}

// RowError describes a sheet row that could not be turned into a location.Row.
type RowError struct {
	Row    int    `json:"row"` // 1-based, as shown in a spreadsheet
	Reason string `json:"reason"`
}

// Sheet is the parsed content of one worksheet.
type Sheet struct {
	Rows   []location.Row
	Errors []RowError
}

// ReadXLSX parses an xlsx workbook from r.
// Blank rows are ignored; rows missing any of the four fields are reported in Sheet.Errors.
func ReadXLSX(r io.Reader, opts Options) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	name := opts.Sheet
	if name == "" {
		name = f.GetSheetName(0)
	}
	if name == "" {
		return Sheet{}, fmt.Errorf("workbook has no sheets")
	}

	raw, err := f.GetRows(name)
	if err != nil {
		return Sheet{}, fmt.Errorf("reading sheet %q: %w", name, err)
	}

	out := Sheet{Rows: []location.Row{}}
	for i, cells := range raw {
		if i == 0 && opts.SkipHeader {
			continue
		}
		if blank(cells) {
			continue
		}

		row, missing := parseRow(cells)
		if missing != "" {
			out.Errors = append(out.Errors, RowError{Row: i + 1, Reason: "missing " + missing})
			continue
		}
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var fieldNames = [columns]string{"departure name", "departure address", "arrival name", "arrival address"}

// parseRow returns the row and the name of the first empty field, if any.
func parseRow(cells []string) (location.Row, string) {
	var v [columns]string
	for i := range v {
		if i < len(cells) {
			v[i] = strings.TrimSpace(cells[i])
		}
		if v[i] == "" {
			return location.Row{}, fieldNames[i]
		}
	}
	return location.Row{
		DepartureName:    v[0],
		DepartureAddress: v[1],
		ArrivalName:      v[2],
		ArrivalAddress:   v[3],
	}, ""
}

// Inserter is the slice of location.Store that ingestion needs.
type Inserter interface {
	InsertIfAbsent(ctx context.Context, row location.Row) (bool, error)
}

// Result counts the outcome of an ingest.
type Result struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}

// Ingest inserts each row unless its address pair is already stored.
// It stops at the first store error; rows before it stay inserted.
func Ingest(ctx context.Context, store Inserter, rows []location.Row) (Result, error) {
	var res Result
	for _, row := range rows {
		inserted, err := store.InsertIfAbsent(ctx, row)
		if err != nil {
			return res, fmt.Errorf("ingesting rows: %w", err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}
	return res, nil
}
