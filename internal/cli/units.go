package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/pagegen/pkg/pipeline"
	"github.com/Sternrassler/pagegen/pkg/unit"
)

// readUnits decodes a JSON array of work units from path, or stdin for "-".
func readUnits(path string, stdin io.Reader) ([]unit.WorkUnit, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open units: %w", err)
		}
		defer f.Close()
		r = f
	}

	var units []unit.WorkUnit
	if err := json.NewDecoder(r).Decode(&units); err != nil {
		return nil, fmt.Errorf("decode units: %w", err)
	}
	return units, nil
}

// writeResult encodes result as indented JSON to path, or stdout for "-".
func writeResult(path string, stdout io.Writer, result *pipeline.BatchResult) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
