package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aweris/jcr"
)

var importCmd = &cobra.Command{
	Use:   "import <file|ref> <parentPath>",
	Short: "Recreate an exported subtree",
	Long: `Create the subtree stored in a snapshot file under parentPath. Use - for stdin.

With --oci the first argument is an image ref pushed by "export --oci".`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("parent-type", jcr.NodeTypeFolder, "node type for missing ancestors")
	importCmd.Flags().Bool("oci", false, "pull from an OCI registry instead of reading a file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	c, log, err := newClient()
	if err != nil {
		return err
	}
	defer log.Sync()

	var snap *jcr.Snapshot
	if oci, _ := cmd.Flags().GetBool("oci"); oci {
		reg, err := newSnapshotRegistry(args[0], log)
		if err != nil {
			return err
		}
		if snap, err = reg.Pull(cmd.Context()); err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}
	} else {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		if snap, err = jcr.ReadSnapshot(r); err != nil {
			return err
		}
	}

	parentType, _ := cmd.Flags().GetString("parent-type")
	n, err := c.ImportSnapshot(cmd.Context(), snap, args[1], jcr.WithParentPrototype(c.Node("", parentType)))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Imported %s\n", n.Path())
	return nil
}
