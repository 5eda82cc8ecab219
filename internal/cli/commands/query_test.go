package commands

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCommand_Table(t *testing.T) {
	api := &fakeAPI{total: 3}
	cfg := writeConfig(t, "")

	out, stderr, err := run(t, api, "query", "comics", "-p", "limit=2", "--all", "--config", cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "Amazing Tales #1")
	assert.Contains(t, out, "Amazing Tales #3")
	assert.Contains(t, stderr, "comics: fetched 3 of 3 items in 2 pages")

	require.Len(t, api.requests, 2)
	assert.Equal(t, "0", api.requests[0].Get("offset"))
	assert.Equal(t, "2", api.requests[1].Get("offset"))
	assert.Equal(t, "1234", api.requests[0].Get("apikey"))
}

func TestQueryCommand_PagesLimit(t *testing.T) {
	api := &fakeAPI{total: 10}
	cfg := writeConfig(t, "")

	_, stderr, err := run(t, api, "query", "comics", "-p", "limit=2", "--pages", "2", "--config", cfg)
	require.NoError(t, err)
	assert.Len(t, api.requests, 2)
	assert.Contains(t, stderr, "(more available)")
}

func TestQueryCommand_JSON(t *testing.T) {
	api := &fakeAPI{total: 1}
	cfg := writeConfig(t, "")

	out, _, err := run(t, api, "query", "comics", "--format", "json", "--config", cfg)
	require.NoError(t, err)

	var items []itemJSON
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].ID)
	assert.Equal(t, "comics/1", items[0].Endpoint)
	assert.Equal(t, map[string]string{
		"series":     "series/1000",
		"characters": "comics/1/characters",
	}, items[0].Links)
}

func TestQueryCommand_NoDiscover(t *testing.T) {
	api := &fakeAPI{total: 1}
	cfg := writeConfig(t, "")

	out, _, err := run(t, api, "query", "comics", "--no-discover", "--format", "json", "--config", cfg)
	require.NoError(t, err)

	var items []itemJSON
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Links)
	assert.Empty(t, items[0].Endpoint)
	assert.Equal(t, "Amazing Tales #1", items[0].Name)
}

func TestQueryCommand_RedisSink(t *testing.T) {
	mr := miniredis.RunT(t)
	api := &fakeAPI{total: 2}
	cfg := writeConfig(t, "sink:\n  redis:\n    addr: "+mr.Addr()+"\n")

	_, _, err := run(t, api, "query", "comics", "--sink", "redis", "--config", cfg)
	require.NoError(t, err)

	assert.True(t, mr.Exists("marvelous:comics:1"))
	assert.True(t, mr.Exists("marvelous:comics:2"))
	members, err := mr.Members("marvelous:comics")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, members)
}

func TestQueryCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
		args []string
		want string
	}{
		{
			name: "typo in type",
			api:  &fakeAPI{},
			args: []string{"query", "comic/5"},
			want: "Did you mean: comics?",
		},
		{
			name: "unknown parameter",
			api:  &fakeAPI{},
			args: []string{"query", "comics", "-p", "limt=5"},
			want: "Did you mean: limit",
		},
		{
			name: "out of range parameter",
			api:  &fakeAPI{},
			args: []string{"query", "characters", "-p", "limit=500"},
			want: "limit: must be at most 100",
		},
		{
			name: "request failure",
			api:  &fakeAPI{err: errors.New("connection refused")},
			args: []string{"query", "comics"},
			want: "REQUEST FAILED",
		},
		{
			name: "bad format",
			api:  &fakeAPI{},
			args: []string{"query", "comics", "--format", "xml"},
			want: `unknown output format "xml"`,
		},
		{
			name: "bad assignment",
			api:  &fakeAPI{},
			args: []string{"query", "comics", "-p", "limit"},
			want: "limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeConfig(t, "")
			_, _, err := run(t, tt.api, append(tt.args, "--config", cfg)...)
			require.Error(t, err)
			assert.Contains(t, describeError(err, true), tt.want)
		})
	}
}

func TestQueryCommand_InvalidParamSendsNoRequest(t *testing.T) {
	api := &fakeAPI{total: 1}
	cfg := writeConfig(t, "")

	_, _, err := run(t, api, "query", "comics", "-p", "bogus=1", "--config", cfg)
	require.Error(t, err)
	assert.Empty(t, api.requests)
}

func TestQueryCommand_MissingConfig(t *testing.T) {
	_, _, err := run(t, &fakeAPI{}, "query", "comics", "--config", "/nonexistent/marvelous.yaml")
	require.Error(t, err)

	var cfgErr *configError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, describeError(err, true), "CONFIGURATION ERROR")
}
