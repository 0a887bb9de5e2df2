package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/aweris/jcr"
)

var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print a node as JSON",
	Long:  "Fetch a node and its children down to --depth and print the server document.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().Int("depth", 0, "levels of children to include")
	getCmd.Flags().Bool("metadata", true, "include mgnl: metadata properties")
	getCmd.Flags().StringSlice("exclude", nil, "node types to leave out")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	c, log, err := newClient()
	if err != nil {
		return err
	}
	defer log.Sync()

	var opts []jcr.GetOption
	if cmd.Flags().Changed("depth") {
		depth, _ := cmd.Flags().GetInt("depth")
		opts = append(opts, jcr.WithDepth(depth))
	}
	if cmd.Flags().Changed("metadata") {
		metadata, _ := cmd.Flags().GetBool("metadata")
		opts = append(opts, jcr.WithMetadata(metadata))
	}
	if cmd.Flags().Changed("exclude") {
		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		opts = append(opts, jcr.WithExcludedNodeTypes(exclude...))
	}

	n, err := c.Get(cmd.Context(), args[0], opts...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(n.ToWire())
}
