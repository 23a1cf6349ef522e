package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aliskhannn/image-versioner/internal/app"
)

func newProcessCommand(opts *options) *cobra.Command {
	var bucket, key string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Generate every version of one stored source and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if bucket == "" {
				bucket = cfg.Storage.Bucket
			}
			if bucket == "" {
				return fmt.Errorf("--bucket is required when storage.bucket is not configured")
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Service.Process(cmd.Context(), bucket, key)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket holding the source (defaults to storage.bucket)")
	cmd.Flags().StringVar(&key, "key", "", "Object key of the source")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}
