// Command exportxlsx converts an extraction-result JSON file (the data
// payload of POST /api/v1/extract) into an XLSX workbook.
// Usage: go run ./cmd/exportxlsx result.json [output.xlsx]
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"billscan/internal/domain"
	"billscan/internal/export"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: exportxlsx result.json [output.xlsx]")
	}
	inPath := os.Args[1]
	outPath := strings.TrimSuffix(inPath, ".json") + ".xlsx"
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read result file: %w", err)
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse result file: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if err := export.WriteXLSX(out, &result); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	log.Printf("Wrote %d line items across %d pages to %s",
		result.TotalItemCount, len(result.PagewiseLineItems), outPath)
	return nil
}
