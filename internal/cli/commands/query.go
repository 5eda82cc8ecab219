package commands

import (
	"github.com/spf13/cobra"

	"github.com/conduit-lang/marvelous/internal/cli/ui"
	"github.com/conduit-lang/marvelous/internal/params"
	"github.com/conduit-lang/marvelous/internal/query"
	"github.com/conduit-lang/marvelous/internal/sink"
)

type queryOptions struct {
	params     []string
	pages      int
	all        bool
	format     string
	noDiscover bool
	sink       string
}

func newQueryCommand(root *rootOptions) *cobra.Command {
	o := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <type>[/<id>[/<type>]]",
		Short: "Fetch pages of results from an endpoint",
		Long: `Fetch one or more pages from an endpoint. Every result is annotated with
the resources it embeds unless --no-discover is given.`,
		Example: `  marvelous query comics -p titleStartsWith=Amazing -p limit=20
  marvelous query characters/1009610/comics --pages 3
  marvelous query series --all --sink sql --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, root, o, args[0])
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&o.params, "param", "p", nil, "query parameter as key=value (repeatable)")
	f.IntVar(&o.pages, "pages", 1, "number of pages to fetch")
	f.BoolVar(&o.all, "all", false, "fetch until the result set is complete")
	f.StringVarP(&o.format, "format", "f", formatTable, "output format (table, json)")
	f.BoolVar(&o.noDiscover, "no-discover", false, "return items without discovery annotations")
	f.StringVar(&o.sink, "sink", "", "also write every page to a sink (redis, sql)")

	return cmd
}

func runQuery(cmd *cobra.Command, root *rootOptions, o *queryOptions, path string) error {
	if err := checkFormat(o.format); err != nil {
		return err
	}
	ep, err := parseEndpoint(path)
	if err != nil {
		return err
	}
	p, err := parseParams(o.params)
	if err != nil {
		return err
	}

	a, err := root.load()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	var extra []query.Option
	if o.noDiscover {
		extra = append(extra, query.WithDiscovery(false))
	}
	if o.sink != "" {
		s, err := sink.Open(ctx, a.cfg, o.sink)
		if err != nil {
			return err
		}
		defer s.Close()
		extra = append(extra, query.WithCatchAllCallback(sink.Callback(s)))
	}

	client, err := a.client(extra...)
	if err != nil {
		return err
	}
	q, err := client.NewQuery(ep, p)
	if err != nil {
		return err
	}

	progress := ui.NewPageProgress(cmd.ErrOrStderr(), ep.Path(), root.noColor)
	var items []*query.Item
	for n := 0; o.all || n < o.pages; n++ {
		if _, err := q.Fetch(ctx); err != nil {
			return err
		}
		history := q.History()
		page := history[len(history)-1]
		progress.Page(page.Count, page.Total)
		items = append(items, page.Items...)

		if q.IsComplete() {
			break
		}
	}
	progress.Done(q.IsComplete())

	return renderItems(cmd.OutOrStdout(), o.format, items, root.noColor)
}

// parseParams turns repeated key=value flags into parameter values; a later
// assignment replaces an earlier one for the same key.
func parseParams(assignments []string) (params.Values, error) {
	p := params.Values{}
	for _, a := range assignments {
		key, value, err := params.ParseAssignment(a)
		if err != nil {
			return nil, err
		}
		p[key] = value
	}
	return p, nil
}
