package referencedata

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Record is one CSV row of a dataset. Raw is the source text the row was read
// from, so a quoted field spanning several lines stays in one record.
type Record struct {
	Fields []string
	Raw    string
}

// Blank reports whether every field of the record is empty
func (r Record) Blank() bool {
	for _, field := range r.Fields {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ParseRecords splits a dataset into its header row and its records. Rows may
// be ragged and stray quotes are tolerated. Empty lines and rows with only
// empty fields are skipped.
func ParseRecords(text string) (Record, []Record, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return Record{}, nil, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		header  Record
		records []Record
		offset  int64
		first   = true
	)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Record{}, nil, err
		}

		end := reader.InputOffset()
		record := Record{
			Fields: fields,
			Raw:    strings.Trim(text[offset:end], "\r\n"),
		}
		offset = end

		if first {
			for i := range record.Fields {
				record.Fields[i] = strings.TrimSpace(record.Fields[i])
			}
			header = record
			first = false
			continue
		}
		if record.Blank() {
			continue
		}
		records = append(records, record)
	}
	return header, records, nil
}
