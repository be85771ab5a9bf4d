package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/arbor"
	"github.com/vango-dev/arbor/pkg/export"
)

func exportCmd(g *globals) *cobra.Command {
	var (
		name     string
		bucket   string
		prefix   string
		region   string
		endpoint string
	)

	cmd := &cobra.Command{
		Use:   "export [demo]",
		Short: "Render a demo and upload it to S3",
		Long: `Render a demo application and upload the page to an S3 bucket.

Credentials are read from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY
and AWS_SESSION_TOKEN.

Examples:
  arbor export todo --bucket=my-site
  arbor export --bucket=pages --endpoint=http://localhost:9000`,
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

			exp := cfg.Export
			if bucket != "" {
				exp.Bucket = bucket
			}
			if prefix != "" {
				exp.Prefix = prefix
			}
			if region != "" {
				exp.Region = region
			}
			if endpoint != "" {
				exp.Endpoint = endpoint
			}
			if name == "" {
				name = a.Name
			}

			client := export.NewClient(export.ClientConfig{Region: exp.Region, Endpoint: exp.Endpoint})
			exporter := export.NewS3Exporter(client, exp.Bucket, exp.Prefix,
				export.WithTitle(exp.Title),
				export.WithLogger(logger),
			)

			store := arbor.NewStore()
			res, err := exporter.ExportElement(cmd.Context(), name, a.New(store),
				arbor.WithStore(store),
				arbor.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ exported %s (%d bytes)\n", res.URI(), res.Size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Page name (default: the demo name)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Target bucket (default from config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix (default from config)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default from config)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Custom S3 endpoint, e.g. MinIO")

	return cmd
}
