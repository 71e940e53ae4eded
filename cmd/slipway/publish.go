package main

import (
	"context"
	"errors"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/slipway-dev/slipway/pkg/publish"
)

func publishCmd() *cobra.Command {
	var (
		bucket  string
		prefix  string
		region  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the dist directory to S3",
		Long: `Upload every file in the dist directory to an S3 bucket.

Credentials come from the ambient AWS configuration (environment,
shared config files, or an instance role).

Examples:
  slipway publish --bucket=my-bucket
  slipway publish --bucket=my-bucket --prefix=previews/my-app`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), bucket, prefix, region, verbose)
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Destination bucket (default from slipway.yaml)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix for uploaded objects")
	cmd.Flags().StringVar(&region, "region", "", "AWS region override")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runPublish(ctx context.Context, bucket, prefix, region string, verbose bool) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	project, cfg, err := loadEnvironment()
	if err != nil {
		return err
	}

	if bucket == "" {
		bucket = cfg.Publish.Bucket
	}
	if prefix == "" {
		prefix = cfg.Publish.Prefix
	}
	if region == "" {
		region = cfg.Publish.Region
	}
	if bucket == "" {
		return errors.New("no bucket configured; pass --bucket or set publish.bucket in slipway.yaml")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return err
	}

	pub := publish.New(s3.NewFromConfig(awsCfg), bucket, prefix, logger)

	info("Publishing %s", project.DistDir)
	n, err := pub.Publish(ctx, project.DistDir)
	if err != nil {
		return err
	}

	dest := "s3://" + bucket
	if prefix != "" {
		dest += "/" + prefix
	}
	success("Published %d files to %s", n, dest)
	return nil
}
