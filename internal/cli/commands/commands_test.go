package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/marvelous/internal/transport"
)

const apiBase = "http://gateway.example.com/v1/public"

// fakeAPI serves total comics, honoring the offset and limit of each request
type fakeAPI struct {
	requests []url.Values
	total    int
	err      error
}

func (f *fakeAPI) Get(_ context.Context, rawURL string) (*transport.Envelope, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	f.requests = append(f.requests, q)
	if f.err != nil {
		return nil, f.err
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit == 0 {
		limit = 50
	}

	var results []map[string]any
	for id := offset + 1; id <= f.total && len(results) < limit; id++ {
		results = append(results, comicResult(id))
	}
	return &transport.Envelope{Data: transport.DataContainer{
		Offset:  offset,
		Limit:   limit,
		Total:   f.total,
		Count:   len(results),
		Results: results,
	}}, nil
}

func comicResult(id int) map[string]any {
	return map[string]any{
		"id":          float64(id),
		"title":       fmt.Sprintf("Amazing Tales #%d", id),
		"issueNumber": float64(id),
		"series": map[string]any{
			"resourceURI": apiBase + "/series/1000",
			"name":        "Amazing Tales",
		},
		"characters": map[string]any{
			"available":     float64(0),
			"returned":      float64(0),
			"collectionURI": fmt.Sprintf("%s/comics/%d/characters", apiBase, id),
			"items":         []any{},
		},
	}
}

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marvelous.yaml")
	content := `api:
  base_url: ` + apiBase + `
  public_key: "1234"
  private_key: abcd
  rate_limit: 0
log:
  level: error
` + extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the root command with a fake API behind it
func run(t *testing.T, api transport.Doer, args ...string) (string, string, error) {
	t.Helper()
	opts := &rootOptions{doer: api}
	cmd := newRootCommand(opts)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
