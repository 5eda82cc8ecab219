package explorer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/marvelous/internal/transport"
)

// pagedUpstream serves total comics one page at a time
type pagedUpstream struct {
	total int
	err   error
}

func (p *pagedUpstream) Get(_ context.Context, rawURL string) (*transport.Envelope, error) {
	if p.err != nil {
		return nil, p.err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	offset, _ := strconv.Atoi(u.Query().Get("offset"))
	limit, _ := strconv.Atoi(u.Query().Get("limit"))

	var results []map[string]any
	for id := offset + 1; id <= p.total && len(results) < limit; id++ {
		results = append(results, comic(id))
	}
	return &transport.Envelope{Data: transport.DataContainer{
		Offset: offset, Limit: limit, Total: p.total, Count: len(results),
		Results: results,
	}}, nil
}

func dialStream(t *testing.T, s *Server, target string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+target, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestStream_AllPages(t *testing.T) {
	s, _ := setupServer(t, &pagedUpstream{total: 3})
	conn := dialStream(t, s, "/ws/comics?limit=1")

	for i := 0; i < 3; i++ {
		var page PageResponse
		require.NoError(t, conn.ReadJSON(&page))
		assert.Equal(t, i, page.Offset)
		require.Len(t, page.Results, 1)
		assert.Equal(t, i+1, page.Results[0].ID)
		assert.Equal(t, i == 2, page.Complete)
	}

	var end StreamEnd
	require.NoError(t, conn.ReadJSON(&end))
	assert.Equal(t, StreamEnd{Done: true, Pages: 3, Complete: true}, end)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
}

func TestStream_MaxPages(t *testing.T) {
	s, _ := setupServer(t, &pagedUpstream{total: 10})
	conn := dialStream(t, s, "/ws/comics?limit=2&max_pages=2")

	for i := 0; i < 2; i++ {
		var page PageResponse
		require.NoError(t, conn.ReadJSON(&page))
		assert.Len(t, page.Results, 2)
	}

	var end StreamEnd
	require.NoError(t, conn.ReadJSON(&end))
	assert.Equal(t, 2, end.Pages)
	assert.False(t, end.Complete)
}

func TestStream_FetchErrorEndsStream(t *testing.T) {
	s, _ := setupServer(t, &pagedUpstream{err: errors.New("connection refused")})
	conn := dialStream(t, s, "/ws/comics")

	var end StreamEnd
	require.NoError(t, conn.ReadJSON(&end))
	assert.Equal(t, 0, end.Pages)
	assert.Contains(t, end.Error, "connection refused")
}

func TestStream_RejectedBeforeUpgrade(t *testing.T) {
	s, _ := setupServer(t, &pagedUpstream{total: 1})

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"bad max_pages", "/ws/comics?max_pages=0", http.StatusBadRequest},
		{"invalid parameter", "/ws/comics?limit=500", http.StatusBadRequest},
		{"unknown type", "/ws/bogus", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, s, tt.target)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestStream_RequiresToken(t *testing.T) {
	tokens := NewTokenService("s3cret", time.Hour)
	s, _ := setupServer(t, &pagedUpstream{total: 1}, WithAuth(tokens))
	ts := httptest.NewServer(s)
	defer ts.Close()
	base := "ws" + strings.TrimPrefix(ts.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws/comics", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := tokens.Issue("alice")
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/comics?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	var page PageResponse
	require.NoError(t, conn.ReadJSON(&page))
	assert.Equal(t, 1, page.Total)
}
