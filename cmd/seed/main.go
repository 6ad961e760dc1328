package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"vks.la/patrol/model"
	"vks.la/patrol/store"
	"vks.la/patrol/store/excel"
	"vks.la/patrol/utils"
)

// seed builds a workbook-backed store for local development: every table
// with its header row, plus either demo sites or sites imported from a CSV
// exported from the master list.
func main() {
	out := flag.String("out", "patrol.xlsx", "workbook to create or extend")
	sitesCSV := flag.String("sites", "", "optional CSV of site master data to import")
	flag.Parse()

	st, err := excel.Open(*out)
	if err != nil {
		log.Fatalf("failed to open workbook: %v", err)
	}

	for table, headers := range model.AllTables() {
		if err := st.EnsureTable(table, headers); err != nil {
			log.Fatalf("failed to ensure table %s: %v", table, err)
		}
	}

	ctx := context.Background()
	if *sitesCSV != "" {
		n, err := importSites(ctx, st, *sitesCSV)
		if err != nil {
			log.Fatalf("failed to import sites: %v", err)
		}
		fmt.Printf("imported %d sites from %s\n", n, *sitesCSV)
	} else {
		if err := seedDemoSites(ctx, st); err != nil {
			log.Fatalf("failed to seed demo sites: %v", err)
		}
		fmt.Println("seeded demo sites")
	}

	fmt.Printf("workbook ready: %s\n", *out)
}

func importSites(ctx context.Context, st store.TabularStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := utils.ParseCSV(f)
	if err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		return 0, fmt.Errorf("csv %s has no data rows", path)
	}

	headers := rows[0]
	count := 0
	for _, row := range rows[1:] {
		rec := store.Record{}
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		if rec.Get("code") == "" {
			continue
		}
		if err := st.AppendRow(ctx, model.TableSites, rec); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func seedDemoSites(ctx context.Context, st store.TabularStore) error {
	demo := []model.Site{
		{Code: "VKS1-1", NameEN: "Riverside Warehouse", NameLO: "ສາງແຄມຂອງ", Lat: 17.9757, Lng: 102.6331, Status: "active"},
		{Code: "VKS1-2", NameEN: "Thatluang Office Park", NameLO: "ທາດຫຼວງ", Lat: 17.9717, Lng: 102.6400, Status: "active"},
		{Code: "VKS2-1", NameEN: "Airport Cargo Depot", Lat: 17.9883, Lng: 102.5663, Status: "active"},
		{Code: "VKS9-9", NameEN: "Closed Yard", Status: "inactive"},
	}
	for _, s := range demo {
		if err := st.AppendRow(ctx, model.TableSites, s.ToRecord()); err != nil {
			return err
		}
	}

	return st.AppendRow(ctx, model.TableSiteConfig, store.Record{
		"code": "VKS2-1", "checkpoints": "6", "rounds": "10",
		"shiftStart": "22:00", "shiftEnd": "06:00", "shiftType": "8h",
	})
}
