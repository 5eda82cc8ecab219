package query

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/marvelous/internal/config"
	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/params"
	"github.com/conduit-lang/marvelous/internal/transport"
)

const apiBase = "http://gateway.example.com/v1/public"

func uri(path string) string {
	return apiBase + "/" + path
}

// fakeAPI serves queued pages and records every requested URL
type fakeAPI struct {
	urls  []string
	pages []transport.DataContainer
	err   error
}

func (f *fakeAPI) Get(_ context.Context, rawURL string) (*transport.Envelope, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	env := &transport.Envelope{Code: 200, Status: "Ok", ETag: fmt.Sprintf("etag-%d", len(f.urls))}
	if len(f.pages) > 0 {
		env.Data = f.pages[0]
		f.pages = f.pages[1:]
	}
	return env, nil
}

func (f *fakeAPI) lastQuery(t *testing.T) url.Values {
	t.Helper()
	require.NotEmpty(t, f.urls)
	u, err := url.Parse(f.urls[len(f.urls)-1])
	require.NoError(t, err)
	return u.Query()
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = apiBase
	cfg.API.PublicKey = "1234"
	cfg.API.PrivateKey = "abcd"
	return cfg
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("q%d", n)
	}
}

func newTestClient(t *testing.T, api transport.Doer, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithDoer(api),
		WithClock(func() time.Time { return time.UnixMilli(1000) }),
		WithIDGenerator(sequentialIDs()),
	}
	c, err := NewClient(testConfig(), append(base, opts...)...)
	require.NoError(t, err)
	return c
}

// results builds decoded JSON results with the given ids
func results(ids ...int) []map[string]any {
	out := make([]map[string]any, len(ids))
	for i, id := range ids {
		out[i] = map[string]any{"id": float64(id), "title": fmt.Sprintf("Item %d", id)}
	}
	return out
}

func idRange(from, to int) []int {
	ids := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		ids = append(ids, i)
	}
	return ids
}

func TestQuery_FetchPaginates(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 20, Total: 40, Count: 20, Results: results(idRange(1, 20)...)},
		{Offset: 20, Limit: 20, Total: 40, Count: 20, Results: results(idRange(21, 40)...)},
	}}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("comics"), params.Values{"limit": 20})
	require.NoError(t, err)
	assert.Equal(t, StateUnfetched, q.State())
	assert.False(t, q.IsComplete())

	got, err := q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Same(t, q, got)
	assert.False(t, q.IsComplete())
	assert.Equal(t, StateFetched, q.State())
	assert.Equal(t, 20, q.Offset())
	assert.Equal(t, 20, q.Count())
	assert.Equal(t, 40, q.Total())
	assert.Len(t, q.Results(), 20)
	assert.Equal(t, "0", api.lastQuery(t).Get("offset"))
	assert.Equal(t, "20", api.lastQuery(t).Get("limit"))

	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, q.IsComplete())
	assert.Equal(t, StateComplete, q.State())
	assert.Equal(t, 40, q.Offset())
	assert.Equal(t, "20", api.lastQuery(t).Get("offset"))

	history := q.History()
	require.Len(t, history, 2)
	assert.Equal(t, "partial", history[0].Classification())
	assert.Equal(t, "complete", history[1].Classification())
	assert.Equal(t, 21, history[1].Items[0].ID)
	assert.Equal(t, "etag-2", history[1].ETag)
}

func TestQuery_FetchBuildsSignedURL(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	q, err := c.QueryPath("comics/5/characters", params.Values{"nameStartsWith": "Spi"})
	require.NoError(t, err)
	_, err = q.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, api.urls, 1)
	assert.True(t, strings.HasPrefix(api.urls[0], apiBase+"/comics/5/characters?"))
	values := api.lastQuery(t)
	assert.Equal(t, "1234", values.Get("apikey"))
	assert.Equal(t, "1000", values.Get("ts"))
	assert.Len(t, values.Get("hash"), 32)
	assert.Equal(t, "Spi", values.Get("nameStartsWith"))
}

func TestQuery_EmptyPageCompletes(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 20, Total: 500, Count: 0, Results: []map[string]any{}},
	}}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("series"), nil)
	require.NoError(t, err)
	_, err = q.Fetch(context.Background())
	require.NoError(t, err)

	assert.True(t, q.IsComplete())
	assert.Equal(t, StateComplete, q.State())
	require.Len(t, q.History(), 1)
	assert.True(t, q.History()[0].NoResults)
	assert.Equal(t, "no_results", q.History()[0].Classification())
}

func TestQuery_DuplicatePageCompletes(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 2, Total: 100, Count: 2, Results: results(1, 2)},
		{Offset: 2, Limit: 2, Total: 100, Count: 2, Results: results(1, 2)},
	}}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("creators"), params.Values{"limit": 2})
	require.NoError(t, err)

	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, q.IsComplete())

	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, q.IsComplete())
	assert.True(t, q.History()[1].Duplicate)
	assert.Equal(t, "duplicate", q.History()[1].Classification())
}

func TestQuery_SameIDsInDifferentOrderIsNotDuplicate(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 2, Total: 100, Count: 2, Results: results(1, 2)},
		{Offset: 2, Limit: 2, Total: 100, Count: 2, Results: results(2, 1)},
	}}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("creators"), nil)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = q.Fetch(context.Background())
		require.NoError(t, err)
	}
	assert.False(t, q.IsComplete())
	assert.False(t, q.History()[1].Duplicate)
}

func TestQuery_FetchAfterCompleteRequestsCurrentOffset(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 20, Total: 3, Count: 3, Results: results(1, 2, 3)},
		{Offset: 3, Limit: 20, Total: 3, Count: 0, Results: []map[string]any{}},
	}}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("events"), nil)
	require.NoError(t, err)
	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	require.True(t, q.IsComplete())

	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", api.lastQuery(t).Get("offset"))
	assert.True(t, q.IsComplete())
	assert.Len(t, q.History(), 2)
}

func TestQuery_FetchSingle(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 1, Total: 1, Count: 1, Results: results(42)},
	}}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("characters", 42), params.Values{"offset": 10, "limit": 30})
	require.NoError(t, err)

	item, err := q.FetchSingle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, item.ID)
	assert.Equal(t, "Item 42", item.Name())
	assert.Equal(t, "1", api.lastQuery(t).Get("limit"))
	assert.Equal(t, "0", api.lastQuery(t).Get("offset"))
}

func TestQuery_FetchSingleRestoresLimit(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 1, Total: 50, Count: 1, Results: results(1)},
		{Offset: 1, Limit: 30, Total: 50, Count: 2, Results: results(2, 3)},
	}}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("characters"), params.Values{"limit": 30})
	require.NoError(t, err)

	_, err = q.FetchSingle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, q.Params()["limit"])

	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "30", api.lastQuery(t).Get("limit"))
	assert.Equal(t, "1", api.lastQuery(t).Get("offset"))
}

func TestQuery_FetchSingleEmpty(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 1, Total: 0, Count: 0, Results: []map[string]any{}},
	}}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("characters", 1), nil)
	require.NoError(t, err)

	item, err := q.FetchSingle(context.Background())
	assert.Nil(t, item)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestQuery_RequestFailed(t *testing.T) {
	cause := &transport.APIError{StatusCode: 401, Code: "InvalidCredentials", Message: "The passed API key is invalid."}
	api := &fakeAPI{err: cause}
	c := newTestClient(t, api)

	q, err := c.NewQuery(endpoint.MustParse("comics"), nil)
	require.NoError(t, err)

	got, err := q.Fetch(context.Background())
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)

	var apiErr *transport.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.StatusCode)

	assert.Equal(t, StateUnfetched, q.State())
	assert.Empty(t, q.History())
	assert.Equal(t, 0, q.Offset())
}

func TestQuery_InvalidParamsSendNoRequest(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	_, err := c.NewQuery(endpoint.MustParse("comics"), params.Values{"limit": 500, "bogus": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, params.ErrParameterValidation)

	var verr *params.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"bogus", "limit"}, verr.FieldNames())
	assert.Empty(t, api.urls)
}

func TestQuery_ParamsValidatedAgainstResolvedType(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})

	// nameStartsWith is a character parameter, not a comic one
	_, err := c.NewQuery(endpoint.MustParse("comics", 5, "characters"), params.Values{"nameStartsWith": "A"})
	assert.NoError(t, err)

	_, err = c.NewQuery(endpoint.MustParse("comics"), params.Values{"nameStartsWith": "A"})
	assert.ErrorIs(t, err, params.ErrParameterValidation)
}

func TestQuery_Callbacks(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "type specific", path: "comics/5/characters", expected: "characters"},
		{name: "catch all", path: "comics", expected: "catch-all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{pages: []transport.DataContainer{
				{Offset: 0, Limit: 20, Total: 1, Count: 1, Results: results(9)},
			}}

			var calls []string
			var seen []*Item
			c := newTestClient(t, api,
				WithResultCallback(endpoint.Characters, func(_ context.Context, _ *Query, items []*Item) error {
					calls = append(calls, "characters")
					seen = items
					return nil
				}),
				WithCatchAllCallback(func(_ context.Context, _ *Query, items []*Item) error {
					calls = append(calls, "catch-all")
					seen = items
					return nil
				}),
			)

			q, err := c.QueryPath(tt.path, nil)
			require.NoError(t, err)
			_, err = q.Fetch(context.Background())
			require.NoError(t, err)

			assert.Equal(t, []string{tt.expected}, calls)
			require.Len(t, seen, 1)
			assert.Equal(t, 9, seen[0].ID)
		})
	}
}

func TestQuery_CallbackErrorAfterStateUpdate(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 20, Total: 40, Count: 20, Results: results(idRange(1, 20)...)},
	}}
	sinkErr := errors.New("sink unavailable")
	c := newTestClient(t, api, WithCatchAllCallback(func(context.Context, *Query, []*Item) error {
		return sinkErr
	}))

	q, err := c.NewQuery(endpoint.MustParse("comics"), nil)
	require.NoError(t, err)

	_, err = q.Fetch(context.Background())
	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, StateFetched, q.State())
	assert.Equal(t, 20, q.Offset())
	assert.Len(t, q.History(), 1)
}

func TestQuery_DiscoveryDisabled(t *testing.T) {
	api := &fakeAPI{pages: []transport.DataContainer{
		{Offset: 0, Limit: 20, Total: 1, Count: 1, Results: []map[string]any{{
			"id":     float64(5),
			"series": map[string]any{"resourceURI": uri("series/1000"), "name": "X"},
		}}},
	}}
	c := newTestClient(t, api, WithDiscovery(false))
	assert.False(t, c.DiscoveryEnabled())

	q, err := c.NewQuery(endpoint.MustParse("comics"), nil)
	require.NoError(t, err)
	_, err = q.Fetch(context.Background())
	require.NoError(t, err)

	item := q.Results()[0]
	assert.Equal(t, 5, item.ID)
	assert.Nil(t, item.Fields)
	assert.True(t, item.Endpoint().IsZero())
	assert.Nil(t, q.History()[0].Discovered)

	_, err = item.Query(endpoint.Characters, nil)
	assert.ErrorIs(t, err, ErrNotExtended)
	_, err = item.FetchSingle(context.Background())
	assert.ErrorIs(t, err, ErrNotExtended)
	assert.Len(t, api.urls, 1)
}

func TestQuery_ParamsReturnsCopy(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})
	q, err := c.NewQuery(endpoint.MustParse("stories"), nil)
	require.NoError(t, err)

	p := q.Params()
	p["offset"] = 99
	assert.Equal(t, 0, q.Offset())
	assert.Equal(t, params.Values{"offset": 0, "limit": 50}, q.Params())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unfetched", StateUnfetched.String())
	assert.Equal(t, "fetched", StateFetched.String())
	assert.Equal(t, "complete", StateComplete.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestIntValue(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{in: 3, want: 3, ok: true},
		{in: int64(4), want: 4, ok: true},
		{in: float64(5), want: 5, ok: true},
		{in: 5.5, ok: false},
		{in: "6", ok: false},
		{in: nil, ok: false},
	}
	for _, tt := range tests {
		got, ok := intValue(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}
