package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/params"
)

// Kind classifies a value found in a result
type Kind int

const (
	// KindPlain is any value that is not navigable
	KindPlain Kind = iota
	// KindResource is an object carrying a resourceURI
	KindResource
	// KindCollection is an object carrying a collectionURI and items
	KindCollection
	// KindResourceArray is a non-empty array of resource objects
	KindResourceArray
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindResource:
		return "resource"
	case KindCollection:
		return "collection"
	case KindResourceArray:
		return "resource_array"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is one classified field of a result. Exactly one of Resource,
// Collection or Resources is set, according to Kind; plain nodes only carry
// Value.
type Node struct {
	Kind       Kind
	Key        string
	Value      any
	Resource   *Resource
	Collection *Collection
	Resources  []*Resource
}

// navigator carries the endpoint of a single item and the capabilities to
// query it. A navigator with a non-nil err is a stub: every method returns
// that error.
type navigator struct {
	client   *Client
	endpoint endpoint.Endpoint
	err      error
}

// Endpoint returns the computed endpoint; the zero Endpoint for stubs
func (n navigator) Endpoint() endpoint.Endpoint { return n.endpoint }

// Err returns the error that turned the node into a stub
func (n navigator) Err() error { return n.err }

// Query returns an unfetched query for the sub collection of this item.
func (n navigator) Query(sub endpoint.Type, p params.Values) (*Query, error) {
	if n.err != nil {
		return nil, n.err
	}
	ep, err := n.endpoint.Extend(sub)
	if err != nil {
		return nil, err
	}
	return n.client.NewQuery(ep, p)
}

// Fetch creates a query for this exact item and fetches it.
func (n navigator) Fetch(ctx context.Context, p params.Values) (*Query, error) {
	if n.err != nil {
		return nil, n.err
	}
	q, err := n.client.NewQuery(n.endpoint, p)
	if err != nil {
		return nil, err
	}
	return q.Fetch(ctx)
}

// FetchSingle fetches the full representation of this item.
func (n navigator) FetchSingle(ctx context.Context) (*Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	q, err := n.client.NewQuery(n.endpoint, nil)
	if err != nil {
		return nil, err
	}
	return q.FetchSingle(ctx)
}

// Item is one top-level result. Its endpoint is built from the page's
// resolved type and the item's id.
type Item struct {
	navigator
	ID     int
	Data   map[string]any
	Fields map[string]*Node
}

// Name returns the display name of the item: title, name or fullName.
func (i *Item) Name() string {
	return displayName(i.Data)
}

// Field returns the classified node for key, or nil.
func (i *Item) Field(key string) *Node {
	return i.Fields[key]
}

// Resource returns the resource node at key, or nil.
func (i *Item) Resource(key string) *Resource {
	if n := i.Fields[key]; n != nil {
		return n.Resource
	}
	return nil
}

// Collection returns the collection node at key, or nil.
func (i *Item) Collection(key string) *Collection {
	if n := i.Fields[key]; n != nil {
		return n.Collection
	}
	return nil
}

// Resources returns the resource array at key, or nil.
func (i *Item) Resources(key string) []*Resource {
	if n := i.Fields[key]; n != nil {
		return n.Resources
	}
	return nil
}

// Links returns the endpoint of every navigable field, keyed by field name.
// Resource arrays are keyed "field[i]". Stubs are omitted.
func (i *Item) Links() map[string]endpoint.Endpoint {
	links := make(map[string]endpoint.Endpoint)
	for key, n := range i.Fields {
		switch n.Kind {
		case KindResource:
			if n.Resource.err == nil {
				links[key] = n.Resource.endpoint
			}
		case KindCollection:
			if n.Collection.err == nil {
				links[key] = n.Collection.endpoint
			}
		case KindResourceArray:
			for idx, r := range n.Resources {
				if r.err == nil {
					links[fmt.Sprintf("%s[%d]", key, idx)] = r.endpoint
				}
			}
		}
	}
	return links
}

// Stubs returns the errors of every field that could not be extended,
// keyed like Links.
func (i *Item) Stubs() map[string]error {
	stubs := make(map[string]error)
	for key, n := range i.Fields {
		switch n.Kind {
		case KindResource:
			if n.Resource.err != nil {
				stubs[key] = n.Resource.err
			}
		case KindCollection:
			if n.Collection.err != nil {
				stubs[key] = n.Collection.err
			}
		case KindResourceArray:
			for idx, r := range n.Resources {
				if r.err != nil {
					stubs[fmt.Sprintf("%s[%d]", key, idx)] = r.err
				}
			}
		}
	}
	return stubs
}

// Keys returns the field names in sorted order.
func (i *Item) Keys() []string {
	keys := make([]string, 0, len(i.Data))
	for k := range i.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resource is an embedded pointer to exactly one remote item.
type Resource struct {
	navigator
	URI  string
	Name string
	Data map[string]any
}

// Collection is an embedded, paginated list of resource summaries.
type Collection struct {
	client    *Client
	endpoint  endpoint.Endpoint
	err       error
	URI       string
	Available int
	Returned  int
	Items     []*Resource
}

// Endpoint returns the collection endpoint; the zero Endpoint for stubs
func (c *Collection) Endpoint() endpoint.Endpoint { return c.endpoint }

// Err returns the error that turned the collection into a stub
func (c *Collection) Err() error { return c.err }

// Query opens a fresh, unfetched query over the whole collection.
func (c *Collection) Query(p params.Values) (*Query, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.client.NewQuery(c.endpoint, p)
}

// bareItems wraps results without discovery; their navigation methods
// return ErrNotExtended.
func bareItems(c *Client, results []map[string]any) []*Item {
	items := make([]*Item, len(results))
	for i, raw := range results {
		id, _ := intValue(raw["id"])
		items[i] = &Item{
			navigator: navigator{client: c, err: ErrNotExtended},
			ID:        id,
			Data:      raw,
		}
	}
	return items
}

func displayName(data map[string]any) string {
	for _, key := range []string{"title", "name", "fullName"} {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
