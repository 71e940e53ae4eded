// Package publish uploads a built dist directory to S3.
//
// Every regular file under the directory becomes one object, keyed by
// its forward-slash relative path under an optional prefix, with the
// same content types the dev server uses.
//
// # Usage
//
//	awsCfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    return err
//	}
//	pub := publish.New(s3.NewFromConfig(awsCfg), "my-bucket", "previews/my-app", logger)
//
//	n, err := pub.Publish(ctx, project.DistDir)
package publish
