package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/s0up4200/bindb/bindb"
)

// printRecord writes a record as indented JSON or as an aligned table
func printRecord(w io.Writer, rec *bindb.Record, format string) error {
	if format == "auto" || format == "" {
		format = "json"
		if f, ok := w.(*os.File); ok && isTerminal(f) {
			format = "table"
		}
	}

	switch format {
	case "table":
		printTable(w, rec)
		return nil
	case "json":
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func printTable(w io.Writer, rec *bindb.Record) {
	keys := rec.Keys()

	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	fmt.Fprintln(w, strings.Repeat("━", width+30))
	for _, k := range keys {
		v, _ := rec.Get(k)
		fmt.Fprintf(w, "%-*s  %v\n", width, strings.ToUpper(k), v)
	}
	fmt.Fprintln(w, strings.Repeat("━", width+30))
}
