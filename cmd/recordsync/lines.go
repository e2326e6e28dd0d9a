package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/recordsync"
	"gopkg.in/yaml.v3"
)

// LoadLines reads and validates a lines file.
func LoadLines(path string, categories *recordsync.CategoryMapping) ([]recordsync.CommercialLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, recordsync.Errorf(recordsync.EINVALID, "opening lines file: %v", err)
	}
	defer f.Close()
	return ParseLines(f, categories)
}

// ParseLines decodes a YAML list of commercial lines and validates every
// line before any work starts: references must be well formed and unique,
// amounts non-negative and categories part of the mapping.
func ParseLines(r io.Reader, categories *recordsync.CategoryMapping) ([]recordsync.CommercialLine, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var lines []recordsync.CommercialLine
	if err := dec.Decode(&lines); err != nil && !errors.Is(err, io.EOF) {
		return nil, recordsync.Errorf(recordsync.EINVALID, "parsing lines file: %v", err)
	}
	if len(lines) == 0 {
		return nil, recordsync.Errorf(recordsync.EINVALID, "lines file has no lines")
	}

	seen := make(map[recordsync.Reference]int, len(lines))
	for i := range lines {
		l := &lines[i]
		if err := l.Validate(); err != nil {
			return nil, recordsync.Errorf(recordsync.EINVALID, "line %d: %s", i+1, recordsync.ErrorMessage(err))
		}
		if !categories.Has(l.Category) {
			return nil, recordsync.Errorf(recordsync.EINVALID, "line %d: unknown category %q (see 'recordsync categories')", i+1, l.Category)
		}
		if prev, ok := seen[l.Reference]; ok {
			return nil, recordsync.Errorf(recordsync.EINVALID, "line %d: reference %s already listed on line %d", i+1, l.Reference, prev)
		}
		seen[l.Reference] = i + 1
	}
	return lines, nil
}

// formatLine renders a line for progress output.
func formatLine(l recordsync.CommercialLine) string {
	return fmt.Sprintf("%s  %.2f EUR  %gkg  x%d  %s", l.Reference, l.Price, l.Weight, l.Quantity, l.Category)
}
