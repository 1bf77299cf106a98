package ingest

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoQualifyingTable is returned when no archive entry carries the
// required landscape columns.
var ErrNoQualifyingTable = errors.New("ingest: no qualifying table in archive")

// headerSearchRows bounds how far into a table the header row may sit below
// title or notes rows.
const headerSearchRows = 10

// Table is the detected landscape table.
type Table struct {
	Fields FieldMap
	Header []string
	Rows   [][]string
	// Source describes where the table came from, e.g. "landscape.csv" or
	// "landscape.xlsx#Sheet1".
	Source string
}

// DetectTable picks the landscape table among archive entries. CSV entries
// are tried first in archive order, then spreadsheet sheets in archive and
// sheet order; the first whose header qualifies wins.
func DetectTable(files []*zip.File) (*Table, error) {
	var csvs, sheets []*zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() || strings.HasPrefix(path.Base(f.Name), ".") || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".csv":
			csvs = append(csvs, f)
		case ".xlsx", ".xlsm":
			sheets = append(sheets, f)
		}
	}

	var tried []string
	for _, f := range csvs {
		t, err := readCSVEntry(f)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
		tried = append(tried, f.Name)
	}
	for _, f := range sheets {
		t, err := readSpreadsheetEntry(f)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
		tried = append(tried, f.Name)
	}
	if len(tried) == 0 {
		return nil, fmt.Errorf("%w: no CSV or spreadsheet entries", ErrNoQualifyingTable)
	}
	return nil, fmt.Errorf("%w (tried %s)", ErrNoQualifyingTable, strings.Join(tried, ", "))
}

// readCSVEntry returns nil, nil when the entry does not qualify.
func readCSVEntry(f *zip.File) (*Table, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", f.Name, err)
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 256*1024)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var fields FieldMap
	var header []string
	for i := 0; i < headerSearchRows; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			// An unparseable preamble disqualifies the entry rather than
			// failing the run; another entry may still qualify.
			return nil, nil
		}
		if fm, ok := qualifies(row); ok {
			fields, header = fm, row
			break
		}
	}
	if fields == nil {
		return nil, nil
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read %s: %w", f.Name, err)
		}
		if isBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return &Table{Fields: fields, Header: header, Rows: rows, Source: f.Name}, nil
}

func readSpreadsheetEntry(f *zip.File) (*Table, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", f.Name, err)
	}
	defer rc.Close()

	book, err := excelize.OpenReader(rc)
	if err != nil {
		return nil, nil
	}
	defer book.Close()

	for _, sheet := range book.GetSheetList() {
		all, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("ingest: read %s#%s: %w", f.Name, sheet, err)
		}
		for i := 0; i < len(all) && i < headerSearchRows; i++ {
			fields, ok := qualifies(all[i])
			if !ok {
				continue
			}
			var rows [][]string
			for _, row := range all[i+1:] {
				if !isBlankRow(row) {
					rows = append(rows, row)
				}
			}
			return &Table{
				Fields: fields,
				Header: all[i],
				Rows:   rows,
				Source: f.Name + "#" + sheet,
			}, nil
		}
	}
	return nil, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
