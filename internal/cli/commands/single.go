package commands

import (
	"github.com/spf13/cobra"
)

func newSingleCommand(root *rootOptions) *cobra.Command {
	var (
		format string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "single <type>/<id>",
		Short: "Fetch exactly one item and show its fields and links",
		Example: `  marvelous single comics/21366
  marvelous single characters/1009610 --format json`,
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

			client, err := a.client()
			if err != nil {
				return err
			}
			q, err := client.NewQuery(ep, p)
			if err != nil {
				return err
			}
			item, err := q.FetchSingle(cmd.Context())
			if err != nil {
				return err
			}
			return renderItem(cmd.OutOrStdout(), format, item, root.noColor)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table, json)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter as key=value (repeatable)")
	return cmd
}
