package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/jcr"
)

var unsetCmd = &cobra.Command{
	Use:   "unset <path> <name> [names...]",
	Short: "Remove properties",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runUnset,
}

func init() {
	rootCmd.AddCommand(unsetCmd)
}

func runUnset(cmd *cobra.Command, args []string) error {
	c, log, err := newClient()
	if err != nil {
		return err
	}
	defer log.Sync()

	n, err := c.Get(cmd.Context(), args[0], jcr.WithDepth(0), jcr.WithMetadata(false))
	if err != nil {
		return err
	}
	for _, name := range args[1:] {
		if _, ok := n.Property(name); !ok {
			return fmt.Errorf("%s has no property %q", n.Path(), name)
		}
		n.DeleteProperty(name)
	}
	return c.Save(cmd.Context(), n)
}
