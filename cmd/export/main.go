package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"fleetwatch/internal/alertlog"
	"fleetwatch/internal/model"
	"fleetwatch/pkg/fleetdb"
)

func main() {
	var dbPath string
	var snapshot string
	var outCSV string
	var outJSON string
	var kind string
	flag.StringVar(&dbPath, "db", "data/fleet.db", "path to the fleet store")
	flag.StringVar(&snapshot, "snapshot", "", "read alerts from a keyed JSON dump instead of the store")
	flag.StringVar(&outCSV, "csv", "", "path to write the CSV export (optional)")
	flag.StringVar(&outJSON, "json", "", "path to write a JSON dump (optional)")
	flag.StringVar(&kind, "kind", "", "filter by alert kind: humidity|temperature|battery")
	flag.Parse()

	if outCSV == "" && outJSON == "" {
		log.Fatalf("no output specified: set --csv and/or --json")
	}

	if snapshot != "" {
		exportSnapshot(snapshot, outCSV, outJSON, kind)
		return
	}
	exportStore(dbPath, outCSV, outJSON, kind)
}

// exportSnapshot projects a keyed JSON dump (the hub's on-wire alert
// form) instead of reading the store.
func exportSnapshot(path, outCSV, outJSON, kind string) {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read snapshot: %v", err)
	}
	var raw map[string]model.AlertEvent
	if err := json.Unmarshal(b, &raw); err != nil {
		log.Fatalf("parse snapshot: %v", err)
	}
	records := alertlog.Project(raw)
	if kind != "" {
		records = alertlog.Filter(records, model.AlertKind(kind))
	}

	if outCSV != "" {
		if err := alertlog.WriteCSVFile(outCSV, records); err != nil {
			log.Fatalf("export csv: %v", err)
		}
	}
	if outJSON != "" {
		writeJSON(outJSON, records)
	}
}

func exportStore(dbPath, outCSV, outJSON, kind string) {
	client, err := fleetdb.Open(dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	if outCSV != "" {
		f, err := os.Create(outCSV)
		if err != nil {
			log.Fatalf("create csv: %v", err)
		}
		if err := client.ExportAlertsCSV(ctx, f, kind); err != nil {
			f.Close()
			log.Fatalf("export csv: %v", err)
		}
		f.Close()
	}

	if outJSON != "" {
		alerts, err := client.ListAlerts(ctx, kind)
		if err != nil {
			log.Fatalf("list alerts: %v", err)
		}
		writeJSON(outJSON, alerts)
	}
}

func writeJSON(path string, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal json: %v", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		log.Fatalf("write json: %v", err)
	}
}
