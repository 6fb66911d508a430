package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ulrun/drc/lib"
)

func main() {
	source := flag.String("source", "", "path to the UL source file to compile and run")
	returnType := flag.String("return", "any", "expected return type of the default export")
	argTypesJSON := flag.String("argtypes", "[]", "JSON array of expected argument type strings")
	argvJSON := flag.String("argv", "[]", "JSON array of argument values to call the default export with")
	auxFlag := flag.String("aux", "", "comma-separated paths to auxiliary UL source/declaration files")
	timeoutMs := flag.Int("timeout", 0, "wall-clock timeout in milliseconds, 0 for none")
	flag.Parse()

	if *source == "" {
		log.Fatalf("-source is required")
	}

	userSource, err := os.ReadFile(*source)
	if err != nil {
		log.Fatalf("can't read source: %v", err)
	}

	var expectedArgTypes []string
	if err := json.Unmarshal([]byte(*argTypesJSON), &expectedArgTypes); err != nil {
		log.Fatalf("can't parse -argtypes: %v", err)
	}
	var argv []any
	if err := json.Unmarshal([]byte(*argvJSON), &argv); err != nil {
		log.Fatalf("can't parse -argv: %v", err)
	}

	aux, err := loadAuxFiles(*auxFlag)
	if err != nil {
		log.Fatalf("can't load -aux files: %v", err)
	}

	runner := lib.New(&lib.Options{
		Log: func(msg string, stderr bool) {
			log.Printf("! (stderr=%v) %s", stderr, msg)
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	value, diags, err := runner.ExecuteUserCode(ctx, string(userSource), argv, *returnType, expectedArgTypes, aux, lib.RunOptions{
		TimeoutMs: *timeoutMs,
	})
	if err != nil {
		log.Fatalf("host error: %v", err)
	}
	if diags != nil {
		enc, _ := json.MarshalIndent(diags, "", "  ")
		log.Printf("diagnostics:\n%s", enc)
		os.Exit(1)
	}

	enc, _ := json.MarshalIndent(value, "", "  ")
	log.Printf("result:\n%s", enc)
}

// loadAuxFiles reads each comma-separated path into a VirtualFile, inferring
// a declaration-file kind from a ".d.ts" suffix the way the harness
// synthesizer's side-effect-import rule (spec.md §4.1) requires.
func loadAuxFiles(raw string) ([]lib.VirtualFile, error) {
	if raw == "" {
		return nil, nil
	}
	var out []lib.VirtualFile
	for _, path := range strings.Split(raw, ",") {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		kind := lib.KindULSource
		if strings.HasSuffix(path, ".d.ts") {
			kind = lib.KindULDeclaration
		}
		out = append(out, lib.VirtualFile{LogicalName: path, Text: string(text), Kind: kind})
	}
	return out, nil
}
