package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/arbor"
	"github.com/vango-dev/arbor/internal/demo"
	"github.com/vango-dev/arbor/pkg/export"
)

func renderCmd(g *globals) *cobra.Command {
	var (
		indent   string
		document bool
	)

	cmd := &cobra.Command{
		Use:   "render [demo]",
		Short: "Render a demo to HTML",
		Long: `Render a demo application on the memory host and print the HTML.

Examples:
  arbor render
  arbor render todo --indent="  "
  arbor render counter --document > index.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			a, err := app(cfg, args)
			if err != nil {
				return err
			}

			store := arbor.NewStore()
			html, err := arbor.RenderToString(a.New(store),
				arbor.WithStore(store),
				arbor.WithLogger(logger),
				arbor.WithIndent(indent),
			)
			if err != nil {
				return err
			}
			if document {
				html = export.Document(cfg.Export.Title, html)
			}
			fmt.Fprint(cmd.OutOrStdout(), html)
			if indent == "" && !document {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&indent, "indent", "", "Indent nested elements with this string")
	cmd.Flags().BoolVar(&document, "document", false, "Wrap the output in an HTML document")

	return cmd
}

func demosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demos",
		Short: "List the bundled demo applications",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range demo.Names() {
				a, _ := demo.Lookup(name)
				fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %s\n", a.Name, a.Description)
			}
		},
	}
}
