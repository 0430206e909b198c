package alertlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"fleetwatch/internal/model"
)

var csvHeader = []string{"ID", "Node", "Type", "Value", "Threshold", "Timestamp", "Message"}

// WriteCSV writes the alert log in the export format. Timestamps are
// rendered as ISO-8601 strings; embedded quotes in messages are doubled by
// the csv writer.
func WriteCSV(w io.Writer, records []model.AlertRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		rec := []string{
			r.ID,
			r.UnitID,
			string(r.Kind),
			strconv.FormatFloat(r.Value, 'g', -1, 64),
			strconv.FormatFloat(r.Threshold, 'g', -1, 64),
			formatTimestamp(r.Timestamp),
			r.Message,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the export to a file, creating or truncating it.
func WriteCSVFile(path string, records []model.AlertRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, records)
}

func formatTimestamp(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
