package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/marvelous/internal/cli/ui"
	"github.com/conduit-lang/marvelous/internal/query"
)

type discoveredJSON struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
	Name     string `json:"name,omitempty"`
}

func newDiscoverCommand(root *rootOptions) *cobra.Command {
	var (
		format string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "discover <type>[/<id>[/<type>]]",
		Short: "List the endpoints embedded in one page of results",
		Long: `Fetch one page and list every distinct resource and collection its items
point to. Fields that could not be extended are reported as warnings.`,
		Example: `  marvelous discover comics -p limit=5
  marvelous discover series/1945/comics --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ep, err := parseEndpoint(args[0])
			if err != nil {
				return err
			}
			p, err := parseParams(params)
			if err != nil {
				return err
			}

			a, err := root.load()
			if err != nil {
				return err
			}
			defer a.close()

			client, err := a.client(query.WithDiscovery(true))
			if err != nil {
				return err
			}
			q, err := client.NewQuery(ep, p)
			if err != nil {
				return err
			}
			if _, err := q.Fetch(cmd.Context()); err != nil {
				return err
			}

			history := q.History()
			page := history[len(history)-1]
			out := cmd.OutOrStdout()

			if format == formatJSON {
				entries := make([]discoveredJSON, 0, len(page.Discovered))
				for _, e := range page.Discovered {
					entries = append(entries, discoveredJSON{
						Type:     string(e.Endpoint.TypeOf()),
						Endpoint: e.Endpoint.Path(),
						Name:     e.Name,
					})
				}
				return writeJSON(out, entries)
			}

			table := ui.NewTable(out, []string{"TYPE", "ENDPOINT", "NAME"}, &ui.TableOptions{
				NoColor:      root.noColor,
				MaxCellWidth: 60,
			})
			for _, e := range page.Discovered {
				table.AddRow(string(e.Endpoint.TypeOf()), e.Endpoint.Path(), e.Name)
			}
			table.Render()

			for _, item := range page.Items {
				stubs := item.Stubs()
				for _, field := range sortedKeys(stubs) {
					msg := fmt.Sprintf("%s/%d.%s: %v", ep.TypeOf(), item.ID, field, stubs[field])
					fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(msg, root.noColor))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table, json)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter as key=value (repeatable)")
	return cmd
}
