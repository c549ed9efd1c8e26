package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/santoshjammi/payrecon/internal/comparison"
	"github.com/santoshjammi/payrecon/internal/config"
	"github.com/santoshjammi/payrecon/internal/dataset"
	"github.com/santoshjammi/payrecon/internal/db"
	"github.com/santoshjammi/payrecon/internal/domain"
	"github.com/santoshjammi/payrecon/internal/logging"
	"github.com/santoshjammi/payrecon/internal/mapping"
	"github.com/santoshjammi/payrecon/internal/orchestrator"
	"github.com/santoshjammi/payrecon/internal/repository"
)

func main() {
	configPath := flag.String("config", ".", "Directory holding config.yaml")
	sourceName := flag.String("source", "", "Source dataset name (without extension)")
	targetName := flag.String("target", "", "Target dataset name (without extension)")
	pageSize := flag.Int("page-size", 10, "Rows of the first result page to print")
	flag.Parse()

	if *sourceName == "" || *targetName == "" {
		fmt.Fprintln(os.Stderr, "usage: payrecon -source <dataset> -target <dataset>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.NewSlogLogger(slog.LevelInfo)

	var (
		jobs    repository.JobRepository
		results repository.ResultRepository
	)
	switch cfg.Storage {
	case "memory":
		jobs = repository.NewInMemoryJobRepository()
		results = repository.NewInMemoryResultRepository()
	default:
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close()

		if err := db.RunMigrations(cfg.Database); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		jobs = repository.NewJobRepository(conn.Pool)
		results = repository.NewResultRepository(conn.Pool)
	}

	orch := orchestrator.New(
		jobs,
		results,
		mapping.NewLoader(cfg.MappingsDir),
		dataset.NewJSONSource(cfg.DataDir, dataset.DefaultColumns()),
		cfg.Workers,
		logger,
	)
	service := comparison.NewService(jobs, results, orch)

	jobID, err := service.StartComparison(ctx, *sourceName, *targetName)
	if err != nil {
		log.Fatalf("Failed to start comparison: %v", err)
	}
	fmt.Printf("Started comparison job %s\n", jobID)

	for {
		job, err := service.GetJobStatus(ctx, jobID)
		if err != nil {
			log.Fatalf("Failed to poll job status: %v", err)
		}

		fmt.Printf("[%5.1f%%] %-12s %s\n", job.Progress, job.Status, job.ProgressMessage)

		if job.Status.IsTerminal() {
			report(job)
			if job.Status != domain.JobStatusCompleted {
				os.Exit(1)
			}
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	page, err := service.QueryResults(ctx, jobID, repository.ResultQuery{Page: 1, PageSize: *pageSize})
	if err != nil {
		log.Fatalf("Failed to query results: %v", err)
	}

	fmt.Printf("\nFirst %d of %d rows (%d pages):\n", len(page.Rows), page.TotalRows, page.TotalPages)
	for _, row := range page.Rows {
		fmt.Printf("  %-12s %-8s %-20s %14.2f %14.2f %14.2f  %s\n",
			row.EmployeeID, row.WageType, row.WageCategory,
			row.SourceAmount, row.TargetAmount, row.Difference, row.Status)
	}
}

func report(job domain.Job) {
	switch job.Status {
	case domain.JobStatusCompleted:
		summary := job.Metadata.Summary
		if summary == nil {
			return
		}
		fmt.Println("\nSummary:")
		fmt.Printf("  Total rows:          %d\n", summary.TotalRows)
		fmt.Printf("  Total source amount: %.2f\n", summary.TotalSourceAmount)
		fmt.Printf("  Total target amount: %.2f\n", summary.TotalTargetAmount)
		fmt.Printf("  Matched:             %d\n", summary.MatchedCount)
		fmt.Printf("  Source only:         %d\n", summary.SourceOnlyCount)
		fmt.Printf("  Target only:         %d\n", summary.TargetOnlyCount)
	case domain.JobStatusFailed:
		fmt.Printf("\nComparison failed: %s\n", job.Error)
	case domain.JobStatusCancelled:
		fmt.Println("\nComparison cancelled")
	}
}
