package query

import (
	"bytes"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"foxgrep/internal/domain"
)

func TestBuildRequestURL(t *testing.T) {
	q := domain.NewQuery("var testing", true, "js/**/*.js")

	raw, err := BuildRequestURL("https://search.example/repo/search", q)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/repo/search", u.Path)

	params := u.Query()
	require.Equal(t, "var testing", params.Get("q"))
	require.Equal(t, "true", params.Get("regexp"))
	require.Equal(t, "js/**/*.js", params.Get("path"))
}

func TestBuildRequestURLPlainQuery(t *testing.T) {
	raw, err := BuildRequestURL("http://localhost:8000/search", domain.NewQuery("foo", false, ""))
	require.NoError(t, err)

	params, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "false", params.Query().Get("regexp"))
	require.Equal(t, "", params.Query().Get("path"))
}

func TestBuildRequestURLEmptyQueryText(t *testing.T) {
	// Empty-string search is valid; accepting or rejecting it is the
	// backend's business.
	raw, err := BuildRequestURL("http://localhost:8000/search", domain.NewQuery("", false, ""))
	require.NoError(t, err)
	require.Contains(t, raw, "q=")
}

func TestCurrentDirGlobNormalized(t *testing.T) {
	q := domain.NewQuery("foo", false, "./")
	require.Equal(t, "", q.PathGlob, "current-directory glob should mean no filter")

	raw, err := BuildRequestURL("http://localhost:8000/search", q)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "", u.Query().Get("path"))
}

func TestBuildRequestURLRejectsBadGlob(t *testing.T) {
	q := domain.NewQuery("foo", false, "src/[")
	_, err := BuildRequestURL("http://localhost:8000/search", q)
	require.ErrorIs(t, err, ErrBadPathGlob)
}

func TestTransform(t *testing.T) {
	body := `{
		"normal": [
			{"path": "foo/bar.js", "lines": [
				{"lno": 12, "bounds": [3, 6], "context": "fn", "line": "var testing = 1;"}
			]}
		]
	}`

	var out bytes.Buffer
	err := Transform(strings.NewReader(body), &out)
	require.NoError(t, err)

	want := "Type: normal\n\n" +
		"File: foo/bar.js\n" +
		"12:3:6:fn\x00var testing = 1;\n" +
		"\n"
	require.Equal(t, want, out.String())
}

func TestTransformEmptyLinesArray(t *testing.T) {
	// A file can match without line-level detail; it still gets one
	// synthetic record.
	body := `{"file": [{"path": "docs/README.md", "lines": []}]}`

	var out bytes.Buffer
	err := Transform(strings.NewReader(body), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "File: docs/README.md\n1:0:0:\x00\n")
}

func TestTransformSkipsReservedGroups(t *testing.T) {
	body := `{
		"*timedout": [{"path": "x"}],
		"normal": [{"path": "a.go", "lines": [{"lno": 1, "bounds": [0, 1], "context": "", "line": "x"}]}]
	}`

	var out bytes.Buffer
	err := Transform(strings.NewReader(body), &out)
	require.NoError(t, err)
	require.NotContains(t, out.String(), "timedout")
	require.Contains(t, out.String(), "Type: normal\n")
}

func TestTransformDropsMalformedGroup(t *testing.T) {
	// One bad group must not blank the whole result set.
	body := `{
		"broken": {"not": "an array"},
		"normal": [{"path": "a.go", "lines": [{"lno": 1, "bounds": [0, 1], "context": "", "line": "x"}]}]
	}`

	var out bytes.Buffer
	err := Transform(strings.NewReader(body), &out)
	require.NoError(t, err)
	require.NotContains(t, out.String(), "broken")
	require.Contains(t, out.String(), "Type: normal\n")
}

func TestTransformRejectsNonObject(t *testing.T) {
	var out bytes.Buffer
	err := Transform(strings.NewReader(`[1, 2, 3]`), &out)
	require.Error(t, err)
	require.Empty(t, out.String())
}

func TestTransformPreservesGroupOrder(t *testing.T) {
	body := `{
		"def": [{"path": "b.go", "lines": [{"lno": 2, "bounds": [0, 1], "context": "", "line": "y"}]}],
		"normal": [{"path": "a.go", "lines": [{"lno": 1, "bounds": [0, 1], "context": "", "line": "x"}]}]
	}`

	var out bytes.Buffer
	require.NoError(t, Transform(strings.NewReader(body), &out))

	defIdx := strings.Index(out.String(), "Type: def")
	normalIdx := strings.Index(out.String(), "Type: normal")
	require.GreaterOrEqual(t, defIdx, 0)
	require.Greater(t, normalIdx, defIdx, "group order should follow the JSON object")
}

func TestTransformDeterministic(t *testing.T) {
	body := `{
		"normal": [
			{"path": "a.go", "lines": [{"lno": 1, "bounds": [0, 1], "context": "c:1", "line": "a: b"}]},
			{"path": "b.go", "lines": []}
		],
		"def": [{"path": "c.go", "lines": [{"lno": 3, "bounds": [2, 4], "context": "", "line": "defn"}]}]
	}`

	var first, second bytes.Buffer
	require.NoError(t, Transform(strings.NewReader(body), &first))
	require.NoError(t, Transform(strings.NewReader(body), &second))
	require.Equal(t, first.String(), second.String())
}
