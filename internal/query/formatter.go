package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"foxgrep/internal/domain"
)

// ErrBadPathGlob is returned when a path filter fails syntax validation
// before any request is made. The backend interprets the glob; we only
// reject patterns it could never parse.
var ErrBadPathGlob = errors.New("invalid path glob")

// nulByte separates the context label from the raw line text in the
// intermediate stream, since both may contain arbitrary text including
// colons.
const nulByte = "\x00"

// BuildRequestURL builds the outbound search request for a query:
// GET <endpoint>?q=<text>&regexp=<true|false>&path=<glob-or-empty>.
// An empty query text is still a valid request; accepting or rejecting
// it is the backend's call.
func BuildRequestURL(endpoint string, q domain.Query) (string, error) {
	if q.PathGlob != "" && !doublestar.ValidatePattern(q.PathGlob) {
		return "", fmt.Errorf("%w: %q", ErrBadPathGlob, q.PathGlob)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse endpoint: %w", err)
	}

	params := url.Values{}
	params.Set("q", q.Text)
	if q.IsRegex {
		params.Set("regexp", "true")
	} else {
		params.Set("regexp", "false")
	}
	params.Set("path", q.PathGlob)
	u.RawQuery = params.Encode()

	return u.String(), nil
}

// fileEntry mirrors one element of a match group in the backend JSON.
type fileEntry struct {
	Path  string      `json:"path"`
	Lines []lineEntry `json:"lines"`
}

// lineEntry mirrors one line-level match in the backend JSON.
type lineEntry struct {
	Lno     int    `json:"lno"`
	Bounds  [2]int `json:"bounds"`
	Context string `json:"context"`
	Line    string `json:"line"`
}

// Transform converts the backend's grouped JSON response into the
// line-oriented intermediate stream consumed by the renderer:
//
//	Type: <group-label>
//	<blank line>
//	File: <path>
//	<lno>:<boundStart>:<boundEnd>:<context><NUL><line-text>
//	...
//	<blank line>
//
// Group order follows the JSON object's key order. Keys starting with
// "*" are reserved metadata groups and are skipped. A group whose value
// does not have the expected shape is dropped rather than failing the
// whole transform, so one bad group cannot blank the result set.
func Transform(body io.Reader, w io.Writer) error {
	dec := json.NewDecoder(body)

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("unexpected response shape: got %v, want object", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read group label: %w", err)
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected group key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to read group %q: %w", label, err)
		}

		// Reserved metadata groups are not results.
		if strings.HasPrefix(label, "*") {
			continue
		}

		var files []fileEntry
		if err := json.Unmarshal(raw, &files); err != nil {
			log.Printf("Dropping unparseable group %q: %v", label, err)
			continue
		}

		if err := writeGroup(w, label, files); err != nil {
			return err
		}
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read response end: %w", err)
	}

	return nil
}

// writeGroup emits one match group in the intermediate grammar.
func writeGroup(w io.Writer, label string, files []fileEntry) error {
	if _, err := fmt.Fprintf(w, "Type: %s\n\n", label); err != nil {
		return err
	}

	for _, f := range files {
		if _, err := fmt.Fprintf(w, "File: %s\n", f.Path); err != nil {
			return err
		}

		lines := f.Lines
		if len(lines) == 0 {
			// The file matched without line-level detail; keep it
			// representable with a synthetic empty record.
			lines = []lineEntry{{Lno: 1}}
		}

		for _, l := range lines {
			_, err := fmt.Fprintf(w, "%d:%d:%d:%s%s%s\n",
				l.Lno, l.Bounds[0], l.Bounds[1], l.Context, nulByte, l.Line)
			if err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}

	return nil
}
