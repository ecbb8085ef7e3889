package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned when a report is exported to an unsupported format.
var ErrUnknownFormat = errors.New("unknown export format")

// FormatDays renders a duration in days with one decimal, e.g. "12.5d".
func FormatDays(days float64) string {
	return fmt.Sprintf("%.1fd", days)
}

// Encode writes the report to w as "json" or "yaml".
func Encode(w io.Writer, report *Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Export writes the report to filename, choosing JSON or YAML by extension.
func Export(report *Report, filename string) error {
	format := strings.TrimPrefix(filepath.Ext(filename), ".")

	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := Encode(f, report, format); err != nil {
		f.Close()
		os.Remove(filename)
		return err
	}

	return f.Close()
}
