package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pageCmd = &cobra.Command{
	Use:   "page <path>",
	Short: "Create a page",
	Long:  "Create a page, creating missing parent pages with the same template.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPage,
}

func init() {
	pageCmd.Flags().String("template", "", "page template (default: templates.page from config)")
	pageCmd.Flags().StringArray("prop", nil, "property as name=value, repeat for more")
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
	c, log, err := newClient()
	if err != nil {
		return err
	}
	defer log.Sync()

	template, _ := cmd.Flags().GetString("template")
	pairs, _ := cmd.Flags().GetStringArray("prop")
	props, err := parseProps(pairs)
	if err != nil {
		return err
	}

	page := c.Page(args[0], template)
	if page.Template() == "" {
		return fmt.Errorf("no template given and templates.page is not configured")
	}
	if err := page.SetProperties(props); err != nil {
		return err
	}
	if err := c.CreatePage(cmd.Context(), page); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Created page %s (%s)\n", page.Path(), page.Template())
	return nil
}
