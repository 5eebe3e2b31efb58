// Package s3source provides resource fetchers backed by S3 objects.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	client := s3.NewFromConfig(cfg)
//	key := reactive.NewSignal(rt, "reports/latest.json")
//	report := s3source.NewObject(rt, client, "my-bucket", key)
package s3source

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/msig-dev/msig/internal/errors"
	"github.com/msig-dev/msig/pkg/reactive"
	"github.com/msig-dev/msig/pkg/resource"
)

// ObjectGetter is the part of *s3.Client used by this package.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ ObjectGetter = (*s3.Client)(nil)

// Fetcher returns a fetch function that reads the object at key from bucket.
// Failures are reported as E008 wrapping the SDK error.
func Fetcher(client ObjectGetter, bucket string) func(ctx context.Context, key string) ([]byte, error) {
	return func(ctx context.Context, key string) ([]byte, error) {
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, objectError(bucket, key, err)
		}
		defer out.Body.Close()

		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, objectError(bucket, key, err)
		}
		return data, nil
	}
}

func objectError(bucket, key string, err error) error {
	return errors.New("E008").
		WithDetail(fmt.Sprintf("s3://%s/%s", bucket, key)).
		Wrap(err)
}

// NewObject creates a resource holding the bytes of the object named by key.
// Changing key fetches the new object.
func NewObject(rt *reactive.Runtime, client ObjectGetter, bucket string, key reactive.Reader[string]) *resource.Resource[[]byte] {
	return resource.NewWithSource(rt, key, Fetcher(client, bucket)).
		Named("s3://" + bucket)
}
