package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/brucejunlee/data-driven-discretization-1d/field"
)

// SaveCSV writes snapshots to a CSV file, one snapshot per row.
func SaveCSV(filename string, snapshots field.Field) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, snapshots); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes snapshots to a CSV writer, one snapshot per row.
func WriteCSV(w io.Writer, snapshots field.Field) error {
	writer := csv.NewWriter(w)
	record := make([]string, 0)

	for i, snapshot := range snapshots {
		record = record[:0]
		for _, v := range snapshot {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing snapshot %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadCSV reads snapshots from a CSV file written by SaveCSV.
func LoadCSV(filename string) (field.Field, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV reads snapshots from a CSV reader. Every row must have the same
// number of columns.
func ReadCSV(r io.Reader) (field.Field, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var snapshots field.Field
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", row, err)
		}
		if len(snapshots) > 0 && len(record) != len(snapshots[0]) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d",
				row, len(record), len(snapshots[0]))
		}
		snapshot := make([]float64, len(record))
		for col, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing row %d column %d: %w", row, col, err)
			}
			snapshot[col] = v
		}
		snapshots = append(snapshots, snapshot)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no snapshots found")
	}
	return snapshots, nil
}
