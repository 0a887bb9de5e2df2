package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/jcr"
)

var createCmd = &cobra.Command{
	Use:   "create <path> <type>",
	Short: "Create a node",
	Long: `Create a node of the given type with optional properties.

With --parent-type, missing ancestors are created with that type first.`,
	Example: "  jcr create /website/travel/about mgnl:page --prop title=About --parent-type mgnl:folder",
	Args:    cobra.ExactArgs(2),
	RunE:    runCreate,
}

func init() {
	createCmd.Flags().StringArray("prop", nil, "property as name=value, repeat for more")
	createCmd.Flags().String("parent-type", "", "node type for missing ancestors")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	c, log, err := newClient()
	if err != nil {
		return err
	}
	defer log.Sync()

	pairs, _ := cmd.Flags().GetStringArray("prop")
	props, err := parseProps(pairs)
	if err != nil {
		return err
	}

	n := c.Node(args[0], args[1])
	if err := n.SetProperties(props); err != nil {
		return err
	}

	var opts []jcr.CreateOption
	if parentType, _ := cmd.Flags().GetString("parent-type"); parentType != "" {
		opts = append(opts, jcr.WithParentPrototype(c.Node("", parentType)))
	}
	if err := c.Create(cmd.Context(), n, opts...); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Created %s\n", n.Path())
	return nil
}
