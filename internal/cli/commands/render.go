package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/conduit-lang/marvelous/internal/cli/ui"
	"github.com/conduit-lang/marvelous/internal/query"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (expected %s or %s)", format, formatTable, formatJSON)
}

// itemJSON is the machine-readable form of one result
type itemJSON struct {
	ID       int               `json:"id"`
	Name     string            `json:"name,omitempty"`
	Endpoint string            `json:"endpoint,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Data     map[string]any    `json:"data"`
}

func toJSON(item *query.Item) itemJSON {
	out := itemJSON{ID: item.ID, Name: item.Name(), Data: item.Data}
	if item.Err() == nil {
		out.Endpoint = item.Endpoint().Path()
	}
	if links := item.Links(); len(links) > 0 {
		out.Links = make(map[string]string, len(links))
		for k, ep := range links {
			out.Links[k] = ep.Path()
		}
	}
	if stubs := item.Stubs(); len(stubs) > 0 {
		out.Errors = make(map[string]string, len(stubs))
		for k, err := range stubs {
			out.Errors[k] = err.Error()
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderItems(w io.Writer, format string, items []*query.Item, noColor bool) error {
	if format == formatJSON {
		out := make([]itemJSON, 0, len(items))
		for _, item := range items {
			out = append(out, toJSON(item))
		}
		return writeJSON(w, out)
	}

	table := ui.NewTable(w, []string{"ID", "NAME", "LINKS", "STUBS"}, &ui.TableOptions{
		NoColor:      noColor,
		MaxCellWidth: 60,
	})
	for _, item := range items {
		table.AddRow(
			strconv.Itoa(item.ID),
			item.Name(),
			strconv.Itoa(len(item.Links())),
			strconv.Itoa(len(item.Stubs())),
		)
	}
	table.Render()
	return nil
}

func renderItem(w io.Writer, format string, item *query.Item, noColor bool) error {
	if format == formatJSON {
		return writeJSON(w, toJSON(item))
	}

	title := item.Name()
	if item.Err() == nil {
		title = fmt.Sprintf("%s (%s)", title, item.Endpoint().Path())
	}
	ui.Header(w, title, noColor)

	kv := ui.NewKeyValueTable(w, noColor)
	for _, key := range item.Keys() {
		switch v := item.Data[key].(type) {
		case map[string]any, []any:
			continue
		case nil:
			kv.AddRow(key, "")
		default:
			kv.AddRow(key, fmt.Sprint(v))
		}
	}
	kv.Render()

	links := item.Links()
	if len(links) > 0 {
		fmt.Fprintln(w)
		table := ui.NewTable(w, []string{"FIELD", "ENDPOINT"}, &ui.TableOptions{NoColor: noColor})
		for _, field := range sortedKeys(links) {
			table.AddRow(field, links[field].Path())
		}
		table.Render()
	}

	stubs := item.Stubs()
	if len(stubs) > 0 {
		fmt.Fprintln(w)
		for _, field := range sortedKeys(stubs) {
			fmt.Fprint(w, ui.Warning(fmt.Sprintf("%s: %v", field, stubs[field]), noColor))
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
