package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/orgtools/orgdelta/internal/checksum"
	"github.com/orgtools/orgdelta/pkg/s3client"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPlan(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"classes/Foo.cls": "new content",
		"package.xml":     "<Package/>",
		"report.csv":      "Type,FullName\n",
	})

	identicalSum, err := checksum.FileSHA256Base64(filepath.Join(dir, "package.xml"))
	if err != nil {
		t.Fatal(err)
	}

	client := &mockS3Client{
		listObjectsFunc: func(_ context.Context, req *s3client.ListObjectsRequest) ([]s3client.ItemMetadata, error) {
			return []s3client.ItemMetadata{
				{Path: "package.xml", Size: int64(len("<Package/>"))},
				{Path: "report.csv", Size: 999},
			}, nil
		},
		headObjectFunc: func(_ context.Context, req *s3client.HeadObjectRequest) (*s3client.ObjectInfo, error) {
			return &s3client.ObjectInfo{Checksum: identicalSum}, nil
		},
	}

	p := NewPublisher(client, 4)
	items, err := p.Plan(context.Background(), dir, "bucket", "orgdelta/2026-08-30", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	byKey := make(map[string]Item, len(items))
	for _, item := range items {
		byKey[item.Key] = item
	}

	if item := byKey["orgdelta/2026-08-30/classes/Foo.cls"]; item.Action != ActionUpload || item.Reason != "new file" {
		t.Errorf("Foo.cls item = %+v, want upload/new file", item)
	}
	if item := byKey["orgdelta/2026-08-30/package.xml"]; item.Action != ActionSkip {
		t.Errorf("package.xml item = %+v, want skip", item)
	}
	if item := byKey["orgdelta/2026-08-30/report.csv"]; item.Action != ActionUpload || item.Reason != "size differs" {
		t.Errorf("report.csv item = %+v, want upload/size differs", item)
	}
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.xml": "a",
		"b.xml": "b",
	})

	items := []Item{
		{Action: ActionUpload, LocalPath: filepath.Join(dir, "a.xml"), Bucket: "bucket", Key: "p/a.xml", Size: 1},
		{Action: ActionSkip, LocalPath: filepath.Join(dir, "b.xml"), Bucket: "bucket", Key: "p/b.xml", Size: 1},
	}

	client := &mockS3Client{}
	p := NewPublisher(client, 2)
	results := p.Publish(context.Background(), items)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("unexpected error for %s: %v", r.Item.Key, r.Error)
		}
	}

	if len(client.putKeys) != 1 || client.putKeys[0] != "p/a.xml" {
		t.Errorf("putKeys = %v, want [p/a.xml]", client.putKeys)
	}
	if len(client.uploadKeys) != 0 {
		t.Errorf("uploadKeys = %v, small files should use PutObject", client.uploadKeys)
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{
			name:       "bucket only",
			uri:        "s3://mybucket",
			wantBucket: "mybucket",
		},
		{
			name:       "bucket with prefix",
			uri:        "s3://mybucket/snapshots/dev",
			wantBucket: "mybucket",
			wantPrefix: "snapshots/dev",
		},
		{
			name:       "trailing slash trimmed",
			uri:        "s3://mybucket/snapshots/",
			wantBucket: "mybucket",
			wantPrefix: "snapshots",
		},
		{
			name:    "not an s3 uri",
			uri:     "http://example.com",
			wantErr: true,
		},
		{
			name:    "empty bucket",
			uri:     "s3://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := ParseS3URI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseS3URI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || prefix != tt.wantPrefix {
				t.Errorf("ParseS3URI() = %q, %q, want %q, %q", bucket, prefix, tt.wantBucket, tt.wantPrefix)
			}
		})
	}
}
