package query

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/logging"
)

// specialKeys maps field names that are not type names to the type they
// address.
var specialKeys = map[string]endpoint.Type{
	"originalIssue": endpoint.Comics,
}

// Injector walks fetched pages and attaches navigation to every resource and
// collection embedded in them.
type Injector struct {
	client *Client
}

// NewInjector returns an injector whose discovered nodes create queries
// through c.
func NewInjector(c *Client) *Injector {
	return &Injector{client: c}
}

// walk holds the state of one Inject call
type walk struct {
	client   *Client
	logger   *zap.Logger
	registry *Registry
	stubs    int
}

// Inject extends every result of a page fetched from ep. It returns the
// extended items and the sorted, deduplicated list of discovered endpoints.
// A node that cannot be extended becomes a stub; its siblings and the rest
// of the page are unaffected.
func (in *Injector) Inject(ep endpoint.Endpoint, results []map[string]any, logger *zap.Logger) ([]*Item, []Entry) {
	w := &walk{
		client:   in.client,
		logger:   logging.OrNop(logger),
		registry: NewRegistry(),
	}

	base := ep.TypeOf()
	items := make([]*Item, len(results))
	for i, raw := range results {
		items[i] = w.extendItem(base, raw)
	}

	w.summarize()
	return items, w.registry.Entries()
}

func (w *walk) extendItem(base endpoint.Type, raw map[string]any) *Item {
	item := &Item{
		navigator: navigator{client: w.client},
		Data:      raw,
		Fields:    make(map[string]*Node, len(raw)),
	}

	id, ok := intValue(raw["id"])
	if ok {
		item.ID = id
		item.endpoint, item.err = endpoint.Resource(base, id)
	} else {
		item.err = fmt.Errorf("%w: %s result has no integer id", endpoint.ErrInvalidEndpoint, base)
	}

	path := string(base)
	if item.err == nil {
		path = item.endpoint.Path()
	} else {
		w.stub(path, item.err)
	}

	// sorted so the first name registered for a shared endpoint is stable
	for _, key := range item.Keys() {
		item.Fields[key] = w.extendField(path, base, key, raw[key])
	}
	return item
}

func (w *walk) extendField(parent string, base endpoint.Type, key string, value any) *Node {
	node := &Node{Kind: classify(value), Key: key, Value: value}
	field := parent + "." + key
	t := resolveType(key, base)

	switch node.Kind {
	case KindResource:
		node.Resource = w.extendResource(field, t, value.(map[string]any))
	case KindCollection:
		node.Collection = w.extendCollection(field, t, value.(map[string]any))
	case KindResourceArray:
		elems := value.([]any)
		node.Resources = make([]*Resource, len(elems))
		for i, elem := range elems {
			node.Resources[i] = w.extendResource(fmt.Sprintf("%s[%d]", field, i), t, elem.(map[string]any))
		}
		w.client.metrics.recordDiscovered(KindResourceArray)
	}
	return node
}

func (w *walk) extendResource(field string, expected endpoint.Type, raw map[string]any) *Resource {
	uri, _ := raw["resourceURI"].(string)
	name, _ := raw["name"].(string)
	res := &Resource{
		navigator: navigator{client: w.client},
		URI:       uri,
		Name:      name,
		Data:      raw,
	}

	ep, err := endpoint.FromURI(uri)
	if err == nil && ep.Len() != 2 {
		err = fmt.Errorf("%w: resource %s does not address a single item", endpoint.ErrInvalidEndpoint, ep)
	}
	if err == nil && ep.Type() != expected {
		err = &MismatchError{Field: field, Expected: expected, Actual: ep}
	}
	if err != nil {
		res.err = err
		w.stub(field, err)
		return res
	}

	res.endpoint = ep
	w.registry.Add(ep, name)
	w.client.metrics.recordDiscovered(KindResource)
	return res
}

func (w *walk) extendCollection(field string, expected endpoint.Type, raw map[string]any) *Collection {
	uri, _ := raw["collectionURI"].(string)
	available, _ := intValue(raw["available"])
	returned, _ := intValue(raw["returned"])
	col := &Collection{
		client:    w.client,
		URI:       uri,
		Available: available,
		Returned:  returned,
	}

	ep, err := endpoint.FromURI(uri)
	if err == nil && ep.TypeOf() != expected {
		err = &MismatchError{Field: field, Expected: expected, Actual: ep}
	}
	if err != nil {
		col.err = err
		w.stub(field, err)
	} else {
		col.endpoint = ep
		w.registry.Add(ep, field)
		w.client.metrics.recordDiscovered(KindCollection)
	}

	// entries are extended even when the collection itself is a stub
	elems, _ := raw["items"].([]any)
	col.Items = make([]*Resource, 0, len(elems))
	for i, elem := range elems {
		m, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		col.Items = append(col.Items, w.extendResource(fmt.Sprintf("%s.items[%d]", field, i), expected, m))
	}
	return col
}

func (w *walk) stub(field string, err error) {
	w.stubs++
	w.client.metrics.recordDiscoveryError()
	w.logger.Warn("node not extended", zap.String("field", field), zap.Error(err))
}

func (w *walk) summarize() {
	if ce := w.logger.Check(zap.DebugLevel, "discovery summary"); ce != nil {
		fields := []zap.Field{
			zap.Int("discovered", w.registry.Len()),
			zap.Int("duplicates", w.registry.Duplicates()),
			zap.Int("stubs", w.stubs),
		}
		grouped := w.registry.ByType()
		for _, t := range endpoint.Types {
			entries, ok := grouped[t]
			if !ok {
				continue
			}
			paths := make([]string, len(entries))
			for i, e := range entries {
				paths[i] = e.Endpoint.Path()
			}
			fields = append(fields, zap.Strings(string(t), paths))
		}
		ce.Write(fields...)
	}
}

// classify returns the variant of a decoded JSON value.
func classify(v any) Kind {
	switch val := v.(type) {
	case map[string]any:
		if isResource(val) {
			return KindResource
		}
		if _, ok := val["collectionURI"].(string); ok {
			if _, ok := val["items"].([]any); ok {
				return KindCollection
			}
		}
	case []any:
		if len(val) == 0 {
			return KindPlain
		}
		for _, elem := range val {
			m, ok := elem.(map[string]any)
			if !ok || !isResource(m) {
				return KindPlain
			}
		}
		return KindResourceArray
	}
	return KindPlain
}

func isResource(m map[string]any) bool {
	_, ok := m["resourceURI"].(string)
	return ok
}

// resolveType returns the type a field addresses: the key itself when it is
// a type name, a special case, or the type of the node holding it.
func resolveType(key string, base endpoint.Type) endpoint.Type {
	if t := endpoint.Type(key); t.Valid() {
		return t
	}
	if t, ok := specialKeys[key]; ok {
		return t
	}
	return base
}
