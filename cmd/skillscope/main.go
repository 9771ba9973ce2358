// Command skillscope processes a transcript or student artifact and writes
// the per-student skill analysis as JSON to stdout.
// Usage: go run ./cmd/skillscope -kind transcript lesson.txt
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"skillscope/internal/config"
	"skillscope/internal/domain"
	"skillscope/internal/pipeline"

	_ "skillscope/internal/producer/openai" // register the openai provider
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	kind := flag.String("kind", "transcript", "input kind: transcript or artifact")
	student := flag.String("student", "", "student id (required for artifact inputs)")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: skillscope [-kind transcript|artifact] [-student id] <file>")
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	ctx := context.Background()
	metadata := map[string]any{"source_file": flag.Arg(0)}

	var result *domain.ProcessingResult
	switch *kind {
	case string(domain.SourceTranscript):
		result, err = p.ProcessTranscript(ctx, string(data), nil, metadata)
	case string(domain.SourceArtifact):
		if *student == "" {
			return fmt.Errorf("artifact inputs require -student")
		}
		result, err = p.ProcessArtifact(ctx, string(data), *student, metadata)
	default:
		return fmt.Errorf("unknown input kind: %s", *kind)
	}
	if err != nil {
		return fmt.Errorf("processing %s: %w", *kind, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
