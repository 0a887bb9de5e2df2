package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <path> <file|ref>",
	Short: "Export a subtree to a snapshot file",
	Long: `Write the subtree at path as zstd-compressed JSON. Use - for stdout.

With --oci the second argument is an image ref and the snapshot is pushed
to that registry as a single-layer image.`,
	Example: "  jcr export /website/travel travel.snap\n  jcr export /website/travel ttl.sh/jcr/travel:1h --oci",
	Args:    cobra.ExactArgs(2),
	RunE:    runExport,
}

func init() {
	exportCmd.Flags().Bool("oci", false, "push to an OCI registry instead of writing a file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	c, log, err := newClient()
	if err != nil {
		return err
	}
	defer log.Sync()

	if oci, _ := cmd.Flags().GetBool("oci"); oci {
		reg, err := newSnapshotRegistry(args[1], log)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		snap, err := c.Export(cmd.Context(), args[0], &buf)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		digest, err := reg.Push(cmd.Context(), snap)
		if err != nil {
			return fmt.Errorf("push failed: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s@%s\n", args[0], reg, digest)
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	if args[1] != "-" {
		f, ferr := os.Create(args[1])
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if _, err := c.Export(cmd.Context(), args[0], w); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s\n", args[0])
	return nil
}
