package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/params"
)

// State is the lifecycle position of a Query
type State int

const (
	// StateUnfetched means Fetch has not succeeded yet
	StateUnfetched State = iota
	// StateFetched means at least one page was fetched and more remain
	StateFetched
	// StateComplete means the last page was reached, was empty, or repeated
	// the previous one
	StateComplete
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateUnfetched:
		return "unfetched"
	case StateFetched:
		return "fetched"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Page is one fetched page as kept in a query's history
type Page struct {
	Offset    int
	Limit     int
	Total     int
	Count     int
	ETag      string
	FetchedAt time.Time
	Items     []*Item
	// Discovered lists the endpoints found by discovery, deduplicated and
	// sorted; nil when discovery is disabled
	Discovered []Entry

	NoResults bool
	Complete  bool
	Duplicate bool
}

// Classification names the page for logs and metrics
func (p *Page) Classification() string {
	switch {
	case p.NoResults:
		return "no_results"
	case p.Duplicate:
		return "duplicate"
	case p.Complete:
		return "complete"
	default:
		return "partial"
	}
}

// Query is one logical, possibly multi-page request sequence. Each Fetch
// advances the offset; callers must not run two Fetch calls on the same
// Query concurrently.
type Query struct {
	id       string
	client   *Client
	endpoint endpoint.Endpoint
	params   params.Values
	logger   *zap.Logger

	state    State
	complete bool
	count    int
	total    int
	results  []*Item
	history  []*Page
	lastIDs  []int
}

// ID returns the query id used to correlate log lines
func (q *Query) ID() string { return q.id }

// Endpoint returns the endpoint being paged
func (q *Query) Endpoint() endpoint.Endpoint { return q.endpoint }

// Params returns a copy of the current parameters
func (q *Query) Params() params.Values { return q.params.Clone() }

// State returns the lifecycle state
func (q *Query) State() State { return q.state }

// IsComplete reports whether the last page has been reached
func (q *Query) IsComplete() bool { return q.complete }

// Count returns the number of items in the most recent page
func (q *Query) Count() int { return q.count }

// Total returns the total reported by the most recent page
func (q *Query) Total() int { return q.total }

// Offset returns the offset the next Fetch will request
func (q *Query) Offset() int {
	offset, _ := q.params.Int("offset")
	return offset
}

// Results returns the items of the most recent page
func (q *Query) Results() []*Item { return q.results }

// History returns every page fetched so far, oldest first
func (q *Query) History() []*Page { return q.history }

// Fetch requests the page at the current offset, advances the offset and
// returns q. Calling Fetch after IsComplete is legal; it requests the page
// at the current offset.
func (q *Query) Fetch(ctx context.Context) (*Query, error) {
	t := q.endpoint.TypeOf()
	url := q.client.builder.Build(q.endpoint, q.params)
	q.logger.Debug("fetching page", zap.Any("params", q.params))

	start := time.Now()
	env, err := q.client.doer.Get(ctx, url)
	q.client.metrics.recordRequest(t, err, time.Since(start))
	if err != nil {
		q.logger.Error("request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, q.endpoint, err)
	}

	data := env.Data
	fetched := data.Offset + data.Count
	remaining := data.Total - fetched
	q.params["offset"] = fetched
	q.count = data.Count
	q.total = data.Total

	ids := itemIDs(data.Results)
	page := &Page{
		Offset:    data.Offset,
		Limit:     data.Limit,
		Total:     data.Total,
		Count:     data.Count,
		ETag:      env.ETag,
		FetchedAt: time.Now(),
		NoResults: len(data.Results) == 0,
		Complete:  remaining <= 0,
		Duplicate: len(q.history) > 0 && len(ids) > 0 && equalIDs(ids, q.lastIDs),
	}
	q.lastIDs = ids

	if page.NoResults || page.Complete || page.Duplicate {
		q.complete = true
	}
	if q.complete {
		q.state = StateComplete
	} else {
		q.state = StateFetched
	}

	if q.client.discover {
		page.Items, page.Discovered = q.client.injector.Inject(q.endpoint, data.Results, q.logger)
	} else {
		page.Items = bareItems(q.client, data.Results)
	}
	q.results = page.Items
	q.history = append(q.history, page)

	q.client.metrics.recordPage(t, page.Classification())
	q.logger.Debug("page fetched",
		zap.Int("offset", data.Offset),
		zap.Int("count", data.Count),
		zap.Int("total", data.Total),
		zap.Int("remaining", remaining),
		zap.String("classification", page.Classification()),
	)

	if cb := q.client.callbackFor(t); cb != nil {
		if err := cb(ctx, q, page.Items); err != nil {
			q.logger.Error("result callback failed", zap.Error(err))
			return nil, fmt.Errorf("result callback: %w", err)
		}
	}

	return q, nil
}

// FetchSingle requests exactly the first item of the endpoint. The previous
// limit is restored afterwards; the offset is left after the fetched item.
func (q *Query) FetchSingle(ctx context.Context) (*Item, error) {
	limit, hadLimit := q.params["limit"]
	defer func() {
		if hadLimit {
			q.params["limit"] = limit
		} else {
			delete(q.params, "limit")
		}
	}()

	q.params["limit"] = 1
	q.params["offset"] = 0
	if _, err := q.Fetch(ctx); err != nil {
		return nil, err
	}
	if len(q.results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, q.endpoint)
	}
	return q.results[0], nil
}

func itemIDs(results []map[string]any) []int {
	ids := make([]int, 0, len(results))
	for _, r := range results {
		if id, ok := intValue(r["id"]); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// intValue converts a decoded JSON number to an int.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
