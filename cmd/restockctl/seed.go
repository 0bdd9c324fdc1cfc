// cmd/restockctl/seed.go
package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Usage:    "CSV file to load",
		Required: true,
	}
}

func newSeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load planning input CSVs into the database",
		Subcommands: []*cli.Command{
			{
				Name:   "demand",
				Usage:  "Load daily demand rows (date,sku,marketplace,units,mapping_status)",
				Flags:  []cli.Flag{newDBURLFlag(), newFileFlag()},
				Action: seedAction(seedDemand),
			},
			{
				Name:   "suppliers",
				Usage:  "Load supplier settings rows",
				Flags:  []cli.Flag{newDBURLFlag(), newFileFlag()},
				Action: seedAction(seedSuppliers),
			},
			{
				Name:   "inventory",
				Usage:  "Load inventory position snapshots",
				Flags:  []cli.Flag{newDBURLFlag(), newFileFlag()},
				Action: seedAction(seedInventory),
			},
		},
	}
}

func seedAction(fn func(db *sql.DB, records [][]string) (int, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		db, err := sql.Open("pgx", c.String("db-url"))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		records, err := readCSV(c.String("file"))
		if err != nil {
			return err
		}

		count, err := fn(db, records)
		if err != nil {
			return err
		}
		log.Printf("loaded %d rows from %s", count, c.String("file"))
		return nil
	}
}

// readCSV returns data records with the header row stripped.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	var records [][]string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if first {
			first = false
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func seedDemand(db *sql.DB, records [][]string) (int, error) {
	query := `
		INSERT INTO daily_demand (date, sku, marketplace, units, mapping_status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date, sku, marketplace)
		DO UPDATE SET units = EXCLUDED.units, mapping_status = EXCLUDED.mapping_status`

	count := 0
	for _, rec := range records {
		if len(rec) < 5 {
			return count, fmt.Errorf("demand row needs 5 columns, got %d", len(rec))
		}
		units, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		if err != nil {
			return count, fmt.Errorf("invalid units %q: %w", rec[3], err)
		}
		if _, err := db.Exec(query, rec[0], rec[1], rec[2], units, rec[4]); err != nil {
			return count, fmt.Errorf("insert demand row for %s: %w", rec[1], err)
		}
		count++
	}
	return count, nil
}

func seedSuppliers(db *sql.DB, records [][]string) (int, error) {
	query := `
		INSERT INTO supplier_settings (sku, marketplace, supplier_id, lead_time_days_mean,
			lead_time_days_std, moq_units, pack_size_units, service_level,
			min_days_of_cover, max_days_of_cover, reorder_policy, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		ON CONFLICT (sku, marketplace, supplier_id)
		DO UPDATE SET lead_time_days_mean = EXCLUDED.lead_time_days_mean,
			lead_time_days_std = EXCLUDED.lead_time_days_std,
			moq_units = EXCLUDED.moq_units,
			pack_size_units = EXCLUDED.pack_size_units,
			service_level = EXCLUDED.service_level,
			min_days_of_cover = EXCLUDED.min_days_of_cover,
			max_days_of_cover = EXCLUDED.max_days_of_cover,
			reorder_policy = EXCLUDED.reorder_policy,
			active = TRUE`

	count := 0
	for _, rec := range records {
		if len(rec) < 11 {
			return count, fmt.Errorf("supplier row needs 11 columns, got %d", len(rec))
		}
		args := []interface{}{
			rec[0],
			nullIfEmpty(rec[1]),
			rec[2],
		}
		for _, col := range rec[3:8] {
			v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
			if err != nil {
				return count, fmt.Errorf("invalid numeric column %q: %w", col, err)
			}
			args = append(args, v)
		}
		args = append(args, nullFloat(rec[8]), nullFloat(rec[9]), rec[10])

		if _, err := db.Exec(query, args...); err != nil {
			return count, fmt.Errorf("insert supplier row for %s: %w", rec[0], err)
		}
		count++
	}
	return count, nil
}

func seedInventory(db *sql.DB, records [][]string) (int, error) {
	query := `
		INSERT INTO inventory_positions (sku, marketplace, on_hand_units, inbound_units, reserved_units, snapshot_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	count := 0
	for _, rec := range records {
		if len(rec) < 6 {
			return count, fmt.Errorf("inventory row needs 6 columns, got %d", len(rec))
		}
		var units [3]float64
		for i, col := range rec[2:5] {
			v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
			if err != nil {
				return count, fmt.Errorf("invalid numeric column %q: %w", col, err)
			}
			units[i] = v
		}
		if _, err := db.Exec(query, rec[0], rec[1], units[0], units[1], units[2], rec[5]); err != nil {
			return count, fmt.Errorf("insert inventory row for %s: %w", rec[0], err)
		}
		count++
	}
	return count, nil
}

// nullIfEmpty returns NULL if the string is empty, otherwise returns the string
func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
