// Package sink persists fetched pages for downstream consumers. Sinks are
// registered as query result callbacks; nothing in the query engine reads
// them back.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/conduit-lang/marvelous/internal/config"
	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/query"
)

// Kinds accepted by Open
const (
	KindRedis = "redis"
	KindSQL   = "sql"
)

// Record is one result item as stored by a sink
type Record struct {
	Type      endpoint.Type
	ID        int
	Name      string
	Data      []byte
	FetchedAt time.Time
}

// Key returns "type:id"
func (r Record) Key() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}

// Sink stores records
type Sink interface {
	Write(ctx context.Context, records []Record) error
	Close() error
}

// Callback adapts s to a query result callback. Items are recorded under the
// resolved type of the query that fetched them.
func Callback(s Sink) query.ResultCallback {
	return func(ctx context.Context, q *query.Query, items []*query.Item) error {
		records, err := Records(q.Endpoint().TypeOf(), items, time.Now())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return s.Write(ctx, records)
	}
}

// Records converts items to records. Items without an id are skipped.
func Records(t endpoint.Type, items []*query.Item, fetchedAt time.Time) ([]Record, error) {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if _, ok := item.Data["id"]; !ok {
			continue
		}
		data, err := json.Marshal(item.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s:%d: %w", t, item.ID, err)
		}
		records = append(records, Record{
			Type:      t,
			ID:        item.ID,
			Name:      item.Name(),
			Data:      data,
			FetchedAt: fetchedAt.UTC(),
		})
	}
	return records, nil
}

// Open builds the sink named by kind from cfg.
func Open(ctx context.Context, cfg *config.Config, kind string) (Sink, error) {
	switch kind {
	case KindRedis:
		return NewRedisSink(ctx, cfg.Sink.Redis)
	case KindSQL:
		s, err := OpenSQL(cfg.Sink.SQL)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink %q (expected %s or %s)", kind, KindRedis, KindSQL)
	}
}
