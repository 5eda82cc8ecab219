package explorer

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/conduit-lang/marvelous/internal/params"
)

const (
	// DefaultStreamPages caps a stream when max_pages is not given
	DefaultStreamPages = 10

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamEnd is the last message of a page stream
type StreamEnd struct {
	Done     bool   `json:"done"`
	Pages    int    `json:"pages"`
	Complete bool   `json:"complete"`
	Error    string `json:"error,omitempty"`
}

// handleStream runs one query over a websocket, sending every page as a
// PageResponse until the result set is complete, max_pages is reached or
// the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	maxPages := DefaultStreamPages
	if v := r.URL.Query().Get("max_pages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			renderError(w, http.StatusBadRequest, errors.New("max_pages must be a positive integer"))
			return
		}
		maxPages = n
	}

	raw := apiQuery(r)
	q, err := s.client.QueryPath(routePath(r), params.FromQuery(raw))
	if err != nil {
		renderQueryError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	logger := s.logger.With(zap.String("query_id", q.ID()), zap.Stringer("endpoint", q.Endpoint()))
	end := StreamEnd{Done: true}
	for end.Pages < maxPages && !q.IsComplete() {
		if _, err := q.Fetch(ctx); err != nil {
			end.Error = err.Error()
			break
		}
		end.Pages++

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(pageResponse(q, raw)); err != nil {
			logger.Debug("stream client gone", zap.Error(err))
			return
		}
	}
	end.Complete = q.IsComplete()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(end); err != nil {
		logger.Debug("stream client gone", zap.Error(err))
		return
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	logger.Debug("stream finished", zap.Int("pages", end.Pages), zap.Bool("complete", end.Complete))
}
