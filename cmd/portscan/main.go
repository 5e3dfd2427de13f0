// Command portscan analyzes a legacy source tree and writes the generated
// API artifact set without running the gateway.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"legacyport/internal/extract"
	artifactrepo "legacyport/internal/gateway/repository/artifact"
	"legacyport/internal/scan"
	"legacyport/internal/synth"
	"legacyport/internal/synth/contract"
)

func main() {
	repo := flag.String("repo", "", "path to the source tree")
	outDir := flag.String("out", "out", "output directory")
	id := flag.String("id", "local", "output subdirectory name")
	format := flag.String("format", "yaml", "contract format: yaml or json")
	title := flag.String("title", "", "API title")
	exts := flag.String("ext", ".php", "comma-separated source extensions")
	ignore := flag.String("ignore", "vendor,node_modules", "comma-separated directory names to skip")
	validate := flag.Bool("validate", true, "validate the generated contract")
	flag.Parse()
	if *repo == "" {
		log.Fatal("--repo is required")
	}
	_ = godotenv.Load()

	ctx := context.Background()
	f, err := contract.ParseFormat(*format)
	if err != nil {
		log.Fatal(err)
	}

	ex := extract.New(extract.Options{Scan: scan.Options{
		Extensions: splitList(*exts),
		IgnoreDirs: splitList(*ignore),
	}})
	result, err := ex.AnalyzeDirectory(*repo)
	if err != nil {
		log.Fatal(err)
	}
	log.Println(result.Summary)

	set, err := synth.Render(ctx, result, synth.Options{Contract: contract.Options{Title: *title, Format: f}})
	if err != nil {
		log.Fatal(err)
	}
	if *validate {
		if doc, ok := set.Lookup(f.Filename()); ok {
			if err := contract.Validate(ctx, doc.Content); err != nil {
				log.Printf("contract warnings: %v", err)
			}
		}
	}

	store, err := artifactrepo.NewFileStore(*outDir)
	if err != nil {
		log.Fatal(err)
	}
	if err := store.Delete(ctx, *id); err != nil {
		log.Fatal(err)
	}
	for _, a := range set.Artifacts {
		if err := store.Put(ctx, *id, a.Filename, a.Content); err != nil {
			log.Fatal(err)
		}
	}
	writeJSON(store.Dir(*id), "analysis.json", result)
	log.Printf("wrote %d files to %s", len(set.Artifacts)+1, store.Dir(*id))
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(dir, name string, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
		log.Fatal(err)
	}
}
