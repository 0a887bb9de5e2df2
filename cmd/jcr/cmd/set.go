package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/jcr"
)

var setCmd = &cobra.Command{
	Use:   "set <path> <name> <value> [values...]",
	Short: "Set a property",
	Long:  "Set a property on an existing node. More than one value makes it multi-valued.",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runSet,
}

func init() {
	setCmd.Flags().String("type", "", "property type, e.g. Long or Date (default: inferred)")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	c, log, err := newClient()
	if err != nil {
		return err
	}
	defer log.Sync()

	n, err := c.Get(cmd.Context(), args[0], jcr.WithDepth(0), jcr.WithMetadata(false))
	if err != nil {
		return err
	}
	typ, _ := cmd.Flags().GetString("type")
	if err := setValues(n, args[1], typ, args[2:]); err != nil {
		return err
	}
	if err := c.Save(cmd.Context(), n); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Set %s/%s\n", n.Path(), args[1])
	return nil
}
