package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText is human-readable text output
	FormatText OutputFormat = "text"
	// FormatJSON is structured JSON output
	FormatJSON OutputFormat = "json"
)

// Formatter writes command output in either text or JSON form.
// Text output uses tabwriter tables and checkmark prefixes; JSON
// output wraps the same data in stable envelopes for scripting.
type Formatter struct {
	format OutputFormat
	writer io.Writer
}

// NewFormatter creates a Formatter for the given format writing to w.
// A nil writer defaults to stdout; unknown formats fall back to text.
func NewFormatter(format OutputFormat, w io.Writer) *Formatter {
	if w == nil {
		w = os.Stdout
	}
	if format != FormatJSON {
		format = FormatText
	}
	return &Formatter{format: format, writer: w}
}

// PrintSuccess prints a success message with a checkmark prefix
func (f *Formatter) PrintSuccess(message string) error {
	if f.format == FormatJSON {
		return f.encode(map[string]any{
			"status":  "success",
			"message": message,
		})
	}
	_, err := fmt.Fprintf(f.writer, "✓ %s\n", message)
	return err
}

// PrintError prints an error message with an X prefix
func (f *Formatter) PrintError(message string) error {
	if f.format == FormatJSON {
		return f.encode(map[string]any{
			"status":  "error",
			"message": message,
		})
	}
	_, err := fmt.Fprintf(f.writer, "✗ %s\n", message)
	return err
}

// PrintTable prints a table with headers and rows. Text output aligns
// columns with tabwriter; JSON output emits rows as header-keyed maps.
func (f *Formatter) PrintTable(headers []string, rows [][]string) error {
	if f.format == FormatJSON {
		data := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			rowMap := make(map[string]string, len(headers))
			for i, header := range headers {
				if i < len(row) {
					rowMap[header] = row[i]
				} else {
					rowMap[header] = ""
				}
			}
			data = append(data, rowMap)
		}
		return f.encode(map[string]any{
			"headers": headers,
			"data":    data,
		})
	}

	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = strings.ToUpper(h)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headerLine, "\t")); err != nil {
		return err
	}

	separator := make([]string, len(headers))
	for i := range headers {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(separator, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return nil
}

// PrintJSON prints arbitrary data as formatted JSON regardless of the
// configured format
func (f *Formatter) PrintJSON(data any) error {
	return f.encode(data)
}

func (f *Formatter) encode(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
