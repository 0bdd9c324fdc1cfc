// cmd/restockctl/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/restock-planner/internal/cache"
	"github.com/andresuchdata/restock-planner/internal/config"
	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/repository/postgres"
	"github.com/andresuchdata/restock-planner/internal/service"
	"github.com/andresuchdata/restock-planner/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "restockctl",
		Usage: "Run restock planning from the command line",
		Commands: []*cli.Command{
			{
				Name:  "recommend",
				Usage: "Compute restock recommendations for a marketplace",
				Flags: []cli.Flag{
					newMarketplaceFlag(),
					&cli.StringFlag{Name: "sku", Usage: "Limit to one SKU"},
					&cli.StringFlag{Name: "supplier-id", Usage: "Limit to one supplier"},
					&cli.BoolFlag{Name: "urgent-only", Usage: "Only urgent rows"},
					&cli.BoolFlag{Name: "include-unmapped", Usage: "Count unmapped/pending demand rows"},
					&cli.StringFlag{Name: "as-of", Usage: "Planning date (YYYY-MM-DD), defaults to today"},
					&cli.BoolFlag{Name: "json", Usage: "Emit JSON instead of a table"},
				},
				Action: runRecommend,
			},
			{
				Name:  "export",
				Usage: "Write the purchase list CSV for a marketplace",
				Flags: []cli.Flag{
					newMarketplaceFlag(),
					&cli.StringFlag{Name: "supplier-id", Usage: "Limit to one supplier"},
					&cli.BoolFlag{Name: "urgent-only", Usage: "Only urgent rows"},
					&cli.StringFlag{Name: "as-of", Usage: "Planning date (YYYY-MM-DD), defaults to today"},
					&cli.StringFlag{Name: "out", Usage: "Output path, '-' for stdout", Value: "-"},
				},
				Action: runExport,
			},
			newSeedCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newMarketplaceFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "marketplace",
		Usage:    "Marketplace to plan for",
		Required: true,
		EnvVars:  []string{"RESTOCK_MARKETPLACE"},
	}
}

func buildRestockService() (*service.RestockService, error) {
	cfg := config.Load()
	logger.SetLevel("warn")

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	demandRepo := postgres.NewDemandRepository(db)
	supplierRepo := postgres.NewSupplierRepository(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	overrideRepo := postgres.NewOverrideRepository(db)

	// CLI runs are one-shot; caching and snapshot uploads stay off.
	forecastService := service.NewForecastService(demandRepo, overrideRepo, cache.NewNoopForecastCache(), cfg.Engine)
	return service.NewRestockService(forecastService, demandRepo, supplierRepo, inventoryRepo, nil, cfg.Engine), nil
}

func parseAsOf(c *cli.Context) (time.Time, error) {
	value := c.String("as-of")
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("as-of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func runRecommend(c *cli.Context) error {
	svc, err := buildRestockService()
	if err != nil {
		return err
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		return err
	}

	marketplace := c.String("marketplace")
	filters := service.RecommendationFilters{
		SupplierID:      c.String("supplier-id"),
		UrgentOnly:      c.Bool("urgent-only"),
		IncludeUnmapped: c.Bool("include-unmapped"),
	}

	var items []domain.RestockRecommendation
	if sku := c.String("sku"); sku != "" {
		rec, err := svc.Recommend(c.Context, sku, marketplace, filters.IncludeUnmapped, asOf)
		if err != nil {
			return err
		}
		items = []domain.RestockRecommendation{rec}
	} else {
		result, err := svc.RecommendAll(c.Context, marketplace, filters, asOf)
		if err != nil {
			return err
		}
		items = result.Items
		for _, warning := range result.DataQuality.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
		}
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	printRecommendations(items)
	return nil
}

func printRecommendations(items []domain.RestockRecommendation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKU\tSTATUS\tDEMAND/DAY\tCOVER\tORDER\tFLAGS")
	for _, rec := range items {
		cover := "-"
		if rec.DaysOfCover != nil {
			cover = fmt.Sprintf("%.1fd", *rec.DaysOfCover)
		}
		flags := ""
		for i, f := range rec.ReasonFlags {
			if i > 0 {
				flags += ";"
			}
			flags += string(f)
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%.0f\t%s\n",
			rec.SKU, rec.Status, rec.DailyDemandEstimate, cover, rec.RecommendedUnitsRounded, flags)
	}
	w.Flush()
}

func runExport(c *cli.Context) error {
	svc, err := buildRestockService()
	if err != nil {
		return err
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		return err
	}

	filters := service.RecommendationFilters{
		SupplierID: c.String("supplier-id"),
		UrgentOnly: c.Bool("urgent-only"),
	}
	payload, err := svc.ExportCSV(c.Context, c.String("marketplace"), filters, asOf)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" || out == "-" {
		_, err = os.Stdout.Write(payload)
		return err
	}
	return os.WriteFile(out, payload, 0o644)
}
