package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"summarize-case/internal/casesummary"
)

var prettyOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Labels are used as sjson paths; escape the path metacharacters.
var pathEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`)

// Render returns the summary as indented JSON keyed by display label, in
// field declaration order, with a trailing newline.
func Render(s casesummary.CaseSummary) ([]byte, error) {
	out := []byte("{}")
	var err error
	for _, f := range casesummary.Fields {
		out, err = sjson.SetBytes(out, pathEscaper.Replace(f.Label), s.Value(f.Name))
		if err != nil {
			return nil, fmt.Errorf("render %q: %w", f.Label, err)
		}
	}
	return pretty.PrettyOptions(out, prettyOptions), nil
}

// Write renders s and writes it to w in a single call; nothing is written if
// rendering fails.
func Write(w io.Writer, s casesummary.CaseSummary) error {
	out, err := Render(s)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
