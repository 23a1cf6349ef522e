package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/aliskhannn/image-versioner/internal/app"
)

func newLambdaCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda handler for S3 object-created events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			// Clients are built once per cold start and reused across invocations.
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			lambda.Start(a.Ingest.HandleEvent)
			return nil
		},
	}
}
