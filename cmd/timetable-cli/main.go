package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/unistudy/timetable-api/internal/catalog"
	"github.com/unistudy/timetable-api/internal/dto"
	"github.com/unistudy/timetable-api/internal/service"
)

const usage = `usage: timetable-cli [flags] <conflicts|analyze|alternatives|generate|export>

Runs one timetable operation against a catalog snapshot and prints the result as JSON.
The request file may be YAML or JSON.`

type options struct {
	catalogPath string
	requestPath string
	outPath     string
	format      string
	timeout     time.Duration
	noRepair    bool
	verbose     bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("timetable-cli: %v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options
	fs := flag.NewFlagSet("timetable-cli", flag.ContinueOnError)
	fs.StringVar(&opts.catalogPath, "catalog", "catalog.yaml", "Path to the catalog snapshot (YAML)")
	fs.StringVar(&opts.requestPath, "request", "", "Path to the request file (YAML or JSON)")
	fs.StringVar(&opts.outPath, "out", "", "Output file for export (defaults to the generated filename)")
	fs.StringVar(&opts.format, "format", "csv", "Export format: csv or pdf")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall operation timeout")
	fs.BoolVar(&opts.noRepair, "no-repair", false, "Disable single-step conflict repair during generation")
	fs.BoolVar(&opts.verbose, "v", false, "Log progress to stderr")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("exactly one command is required")
	}
	if opts.requestPath == "" {
		return errors.New("-request is required")
	}

	logger := zap.NewNop()
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
	}
	defer logger.Sync() //nolint:errcheck

	snapshot, err := catalog.LoadFile(opts.catalogPath)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(opts.requestPath)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	var result interface{}
	switch cmd := fs.Arg(0); cmd {
	case "conflicts":
		var req dto.CheckConflictsRequest
		if err := decodeRequest(raw, &req); err != nil {
			return err
		}
		result, err = service.NewTimetableConflictService(snapshot, nil, logger).CheckConflicts(ctx, req)
	case "analyze":
		var req dto.AnalyzeTimetableRequest
		if err := decodeRequest(raw, &req); err != nil {
			return err
		}
		result, err = service.NewTimetableAnalyzer(service.TimetableAnalyzerConfig{}, nil).AnalyzeRequest(req)
	case "alternatives":
		var req dto.SuggestAlternativesRequest
		if err := decodeRequest(raw, &req); err != nil {
			return err
		}
		result, err = service.NewTimetableAlternativeService(snapshot, service.TimetableAlternativeConfig{}, nil, logger).Suggest(ctx, req)
	case "generate":
		var req dto.GenerateTimetableRequest
		if err := decodeRequest(raw, &req); err != nil {
			return err
		}
		svc := service.NewTimetableGeneratorService(snapshot.StudyPlans(), snapshot, nil, nil, logger, service.TimetableGeneratorConfig{
			RepairEnabled: !opts.noRepair,
		})
		result, err = svc.Generate(ctx, req)
	case "export":
		return runExport(raw, opts, stdout, logger)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runExport(raw []byte, opts options, stdout io.Writer, logger *zap.Logger) error {
	var req dto.ExportTimetableRequest
	if err := decodeRequest(raw, &req); err != nil {
		return err
	}
	req.Format = opts.format
	doc, err := service.NewTimetableExportService(nil, nil, nil, logger).Export(req)
	if err != nil {
		return err
	}
	out := opts.outPath
	if out == "" {
		out = doc.Filename
	}
	if err := os.WriteFile(out, doc.Body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	abs, _ := filepath.Abs(out)
	fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", abs, len(doc.Body))
	return nil
}

// decodeRequest accepts YAML or JSON; JSON documents are valid YAML flow documents.
func decodeRequest(raw []byte, out interface{}) error {
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
