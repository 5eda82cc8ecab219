package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/marvelous/internal/cli/ui"
	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/params"
)

func newParamsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "params <type>",
		Short: "List the parameters a resource type accepts and their global defaults",
		Example: `  marvelous params comics`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := endpoint.ParseType(args[0])
			if err != nil {
				return &pathError{path: args[0], err: err}
			}

			a, err := root.load()
			if err != nil {
				return err
			}
			defer a.close()

			schemas := params.DefaultRegistry()
			lister, ok := schemas[t].(params.Lister)
			if !ok {
				return fmt.Errorf("no parameter list for %s", t)
			}
			manager, err := params.NewManager(a.cfg, schemas)
			if err != nil {
				return &configError{err: err}
			}
			globals := params.Defaults().Merge(manager.Global(t))

			table := ui.NewTable(cmd.OutOrStdout(), []string{"PARAMETER", "DEFAULT"}, &ui.TableOptions{NoColor: root.noColor})
			for _, name := range lister.Names() {
				def := ""
				if v, ok := globals[name]; ok {
					def = fmt.Sprint(v)
				}
				table.AddRow(name, def)
			}
			table.Render()
			return nil
		},
	}
}
