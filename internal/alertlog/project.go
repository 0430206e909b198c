package alertlog

import (
	"sort"

	"fleetwatch/internal/model"
)

// Project normalizes the store's keyed append-only records into an ordered
// list. The store key becomes the record identifier. Ordering is newest
// first; a missing timestamp sorts as 0, i.e. oldest.
func Project(raw map[string]model.AlertEvent) []model.AlertRecord {
	out := make([]model.AlertRecord, 0, len(raw))
	for id, ev := range raw {
		out = append(out, model.AlertRecord{
			ID:        id,
			UnitID:    ev.UnitID,
			Kind:      ev.Kind,
			Value:     ev.Value,
			Threshold: ev.Threshold,
			Message:   ev.Message,
			Timestamp: ev.Timestamp,
		})
	}
	sortRecords(out)
	return out
}

// Filter returns the records matching one alert kind, preserving order.
func Filter(records []model.AlertRecord, kind model.AlertKind) []model.AlertRecord {
	out := make([]model.AlertRecord, 0, len(records))
	for _, r := range records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func sortRecords(records []model.AlertRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
}
