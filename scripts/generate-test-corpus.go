//go:build ignore

// Package main generates a synthetic directory tree for benchmarking findtext.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench -needle Needle
//
// Text files are filled with random words; the needle is planted on a share
// of their lines in random case. A few files hold invalid UTF-8 so that the
// skip path is exercised. The expected occurrence count is printed at the end
// and written to <output>/EXPECTED.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Uint64("seed", 42, "Random seed for reproducibility")
	needle    = flag.String("needle", "Needle", "Text to plant")
	lines     = flag.Int("lines", 200, "Lines per text file")
	rate      = flag.Int("rate", 40, "Plant the needle on one line in this many")
	depth     = flag.Int("depth", 3, "Directory nesting depth")
	binaryPct = flag.Int("binary", 2, "Percentage of files with invalid UTF-8")
)

var (
	words = []string{
		"server", "client", "handler", "router", "scheduler", "monitor", "logger",
		"session", "token", "config", "event", "message", "request", "response",
		"process", "execute", "create", "delete", "update", "validate", "convert",
		"straße", "café", "naïve", "日本語", "данные",
	}
	dirNames = []string{"src", "docs", "lib", "vendor", "assets", "notes", "build", "tmp"}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewPCG(*seed, *seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d files in %s...\n", *numFiles, *outputDir)

	expected, skipped := 0, 0
	for i := range *numFiles {
		dir := randomDir(rng, *outputDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
			os.Exit(1)
		}

		if rng.IntN(100) < *binaryPct {
			if err := writeBinary(rng, filepath.Join(dir, fmt.Sprintf("blob_%d.bin", i))); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating file %d: %v\n", i, err)
			}
			skipped++
			continue
		}

		n, err := writeText(rng, filepath.Join(dir, fmt.Sprintf("file_%d.txt", i)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating file %d: %v\n", i, err)
			continue
		}
		expected += n
	}

	summary := strconv.Itoa(expected) + "\n"
	if err := os.WriteFile(filepath.Join(*outputDir, "EXPECTED"), []byte(summary), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing EXPECTED: %v\n", err)
	}
	fmt.Printf("Generated %d files: %d occurrences of %q expected, %d undecodable.\n",
		*numFiles, expected, *needle, skipped)
}

func randomDir(rng *rand.Rand, root string) string {
	parts := []string{root}
	for range rng.IntN(*depth + 1) {
		parts = append(parts, dirNames[rng.IntN(len(dirNames))])
	}
	return filepath.Join(parts...)
}

// writeText writes a text file and returns how many needles it holds.
func writeText(rng *rand.Rand, path string) (int, error) {
	var sb strings.Builder
	planted := 0
	for range *lines {
		count := 4 + rng.IntN(12)
		for w := range count {
			if w > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(words[rng.IntN(len(words))])
		}
		if rng.IntN(*rate) == 0 {
			sb.WriteByte(' ')
			sb.WriteString(randomCase(rng, *needle))
			planted++
		}
		sb.WriteByte('\n')
	}
	return planted, os.WriteFile(path, []byte(sb.String()), 0o644)
}

// writeBinary writes bytes that are not valid UTF-8, needle included.
func writeBinary(rng *rand.Rand, path string) error {
	data := []byte(*needle + "\n")
	for range 256 {
		data = append(data, byte(0x80+rng.IntN(0x40)))
	}
	return os.WriteFile(path, append(data, 0xff, 0xfe), 0o644)
}

func randomCase(rng *rand.Rand, s string) string {
	var sb strings.Builder
	for _, r := range s {
		if rng.IntN(2) == 0 {
			sb.WriteRune(unicode.ToUpper(r))
		} else {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
