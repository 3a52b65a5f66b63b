package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeBucket struct {
	objects map[string]string
	keys    []string
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, aws.ToString(in.Bucket)+"/"+key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseS3Location(t *testing.T) {
	tests := []struct {
		in, bucket, prefix string
		wantErr            bool
	}{
		{in: "s3://data/tbi/", bucket: "data", prefix: "tbi"},
		{in: "s3://data", bucket: "data", prefix: ""},
		{in: "s3://bucket/a/b", bucket: "bucket", prefix: "a/b"},
		{in: "s3:///x", wantErr: true},
	}
	for _, tt := range tests {
		b, p, err := parseS3Location(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseS3Location(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || b != tt.bucket || p != tt.prefix {
			t.Errorf("parseS3Location(%q) = %q, %q, %v", tt.in, b, p, err)
		}
	}
}

func TestFetch_LocalPassthrough(t *testing.T) {
	got, err := Fetch(context.Background(), "/srv/tbi", FileSet{}, t.TempDir())
	if err != nil || got != "/srv/tbi" {
		t.Errorf("Fetch = %q, %v", got, err)
	}
	if IsRemote("/srv/tbi") || !IsRemote("s3://b/k") {
		t.Error("IsRemote misclassified")
	}
}

func TestFetchObjects(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{
		"tbi/tbi_age.csv":      "age",
		"tbi/tbi_year.csv":     "year",
		"tbi/tbi_military.csv": "military",
	}}
	mirror := t.TempDir()

	dir, err := fetchObjects(context.Background(), bucket, "data", "tbi", FileSet{}, mirror)
	if err != nil {
		t.Fatalf("fetchObjects: %v", err)
	}
	if want := filepath.Join(mirror, "data", "tbi"); dir != want {
		t.Errorf("dir = %q, want %q", dir, want)
	}
	got, err := os.ReadFile(filepath.Join(dir, "tbi_year.csv"))
	if err != nil || string(got) != "year" {
		t.Errorf("mirrored year = %q, %v", got, err)
	}
	if len(bucket.keys) != 3 {
		t.Errorf("requests = %v, want 3", bucket.keys)
	}
}

func TestFetchObjects_MissingObject(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{}}
	if _, err := fetchObjects(context.Background(), bucket, "data", "", FileSet{}, t.TempDir()); err == nil {
		t.Error("expected error for missing object")
	}
}
