package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/tbidash/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of the S3 client used to mirror remote tables.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// IsRemote reports whether location points at an S3 prefix.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// Fetch resolves a data location to a local directory.
// Local paths are returned unchanged. For s3://bucket/prefix the three table
// files are downloaded into mirrorDir and the mirror path is returned.
func Fetch(ctx context.Context, location string, names FileSet, mirrorDir string) (string, error) {
	if !IsRemote(location) {
		return location, nil
	}

	bucket, prefix, err := parseS3Location(location)
	if err != nil {
		return "", err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("loading aws config: %w", err)
	}
	return fetchObjects(ctx, s3.NewFromConfig(cfg), bucket, prefix, names, mirrorDir)
}

func fetchObjects(ctx context.Context, client ObjectGetter, bucket, prefix string, names FileSet, mirrorDir string) (string, error) {
	names = names.withDefaults()
	dir := filepath.Join(mirrorDir, bucket, filepath.FromSlash(prefix))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating mirror dir: %w", err)
	}

	for _, k := range model.Kinds {
		name := names.Name(k)
		key := path.Join(prefix, name)
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return "", fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
		}
		err = writeAtomic(filepath.Join(dir, name), out.Body)
		_ = out.Body.Close()
		if err != nil {
			return "", fmt.Errorf("mirroring %s: %w", key, err)
		}
	}
	return dir, nil
}

func writeAtomic(dst string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".fetch-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// parseS3Location splits s3://bucket/prefix into its parts.
func parseS3Location(location string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid s3 location %q: missing bucket", location)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
