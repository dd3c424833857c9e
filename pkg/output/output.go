package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
)

// Format represents the output format type
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatText  Format = "text"
)

// ParseFormat maps a configured name to a Format, defaulting to text.
func ParseFormat(name string) Format {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// ValidFormat checks if format is valid
func ValidFormat(name string) bool {
	return name == "json" || name == "table" || name == "text"
}

// Field is one labelled value of a record.
type Field struct {
	Key   string
	Value interface{}
}

// Printer writes command results in one format.
type Printer struct {
	w      io.Writer
	format Format
}

// New creates a printer. A nil w writes to color.Output.
func New(w io.Writer, format Format) *Printer {
	if w == nil {
		w = color.Output
	}
	return &Printer{w: w, format: format}
}

func (p *Printer) Format() Format {
	return p.format
}

func (p *Printer) Writer() io.Writer {
	return p.w
}

// IsJSON reports whether structured values should be emitted instead of
// human text.
func (p *Printer) IsJSON() bool {
	return p.format == FormatJSON
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// Record writes labelled fields in order. In JSON mode raw is written
// instead.
func (p *Printer) Record(title string, fields []Field, raw interface{}) error {
	switch p.format {
	case FormatJSON:
		return p.JSON(raw)
	case FormatTable:
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f.Key, fmt.Sprintf("%v", f.Value)})
		}
		return p.Table([]string{"Field", "Value"}, rows)
	default:
		if title != "" {
			color.New(color.Bold).Fprintln(p.w, title)
		}
		bold := color.New(color.Bold)
		for _, f := range fields {
			bold.Fprint(p.w, f.Key+": ")
			fmt.Fprintf(p.w, "%v\n", f.Value)
		}
		return nil
	}
}

// List writes rows under headers. In JSON mode raw is written instead.
func (p *Printer) List(headers []string, rows [][]string, raw interface{}) error {
	if p.format == FormatJSON {
		return p.JSON(raw)
	}
	return p.Table(headers, rows)
}

// Table writes aligned columns with a bold header row.
func (p *Printer) Table(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	for i, h := range headers {
		bold.Fprint(w, h)
		if i < len(headers)-1 {
			fmt.Fprint(w, "\t")
		}
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	return w.Flush()
}

// Line writes plain text.
func (p *Printer) Line(msg string, args ...interface{}) {
	fmt.Fprintf(p.w, msg+"\n", args...)
}

// Success prints a success message
func (p *Printer) Success(msg string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(p.w, msg+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(msg string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(p.w, "Error: "+msg+"\n", args...)
}

// Info prints an info message
func (p *Printer) Info(msg string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(p.w, msg+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(p.w, "Warning: "+msg+"\n", args...)
}
