// Command hicdata manages the experimental measurement catalogue: it
// ingests data files into the configured store and queries stored
// observables. Backend selection is environment-driven; see
// internal/persistence and internal/blob for the recognized variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hicdata/internal/blob"
	"hicdata/internal/core"
	"hicdata/internal/ingest"
	"hicdata/internal/persistence"
	"hicdata/pkg/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := core.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, nil)))
	reg := domain.DefaultRegistry()

	var err error
	switch args[0] {
	case "ingest":
		err = runIngest(ctx, args[1:], stdout, logger, reg)
	case "query":
		err = runQuery(ctx, args[1:], stdout, logger, reg)
	case "kinds":
		err = runKinds(args[1:], stdout, reg)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: hicdata <command> [flags]")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  ingest  -dir <root>          ingest <system>/<collaboration>/<observable>.dat trees")
	fmt.Fprintln(w, "  query   -observable <name>   print stored measurements as JSON")
	fmt.Fprintln(w, "  kinds                        list observable kinds and their parameters")
}

func runIngest(ctx context.Context, args []string, stdout io.Writer, logger core.Logger, reg *domain.Registry) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	dir := fs.String("dir", "", "root directory of data files (required)")
	noAttach := fs.Bool("no-attach", false, "skip storing raw source files as attachments")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return fmt.Errorf("ingest: -dir is required")
	}

	store, err := persistence.Open(ctx, reg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	var blobs blob.Store
	if !*noAttach {
		if blobs, err = blob.Open(ctx); err != nil {
			return fmt.Errorf("open attachment store: %w", err)
		}
	}

	svc := core.NewService(store, core.WithLogger(logger))
	ing := ingest.New(svc, blobs, reg, ingest.WithIngestLogger(logger))
	sum, err := ing.Directory(ctx, *dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "ingested %d, skipped %d\n", sum.Ingested, sum.Skipped)
	return nil
}

func runQuery(ctx context.Context, args []string, stdout io.Writer, logger core.Logger, reg *domain.Registry) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	observable := fs.String("observable", "", "observable short name (required)")
	system := fs.String("system", "", "collision system name (e.g. Pb-Pb-2760)")
	collaboration := fs.String("collaboration", "", "experimental collaboration")
	arxiv := fs.String("arxiv", "", "arXiv id of the reference")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *observable == "" {
		return fmt.Errorf("query: -observable is required")
	}

	store, err := persistence.Open(ctx, reg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	svc := core.NewService(store, core.WithLogger(logger))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if *system != "" || *collaboration != "" || *arxiv != "" {
		entity, err := svc.ObservableBy(ctx, *observable, *system, *collaboration, *arxiv)
		if err != nil {
			return err
		}
		return enc.Encode(entity)
	}
	entities, err := svc.Observable(ctx, *observable)
	if err != nil {
		return err
	}
	return enc.Encode(entities)
}

func runKinds(args []string, stdout io.Writer, reg *domain.Registry) error {
	fs := flag.NewFlagSet("kinds", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, kind := range reg.Kinds() {
		specs, err := reg.RequirementsOf(kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s:\n", kind)
		for _, spec := range specs {
			fmt.Fprintf(stdout, "  %s (%s)\n", spec.Name, spec.Type)
		}
	}
	return nil
}
