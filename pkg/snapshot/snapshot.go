package snapshot

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/orgtools/orgdelta/internal/checksum"
	"github.com/orgtools/orgdelta/internal/walker"
	"github.com/orgtools/orgdelta/pkg/s3client"
)

const multipartThreshold = 64 * 1024 * 1024 // 64MB

// Action is what Publish does with one planned item
type Action string

const (
	ActionUpload Action = "upload"
	ActionSkip   Action = "skip"
)

// Item is one file of a snapshot plan
type Item struct {
	Action    Action
	LocalPath string
	Bucket    string
	Key       string
	Size      int64
	Reason    string
	Checksum  string // base64 SHA-256, set for uploads
}

// Result is the outcome of publishing one item
type Result struct {
	Item  Item
	Error error
}

// Publisher copies retrieval trees and compare artifacts to S3
type Publisher struct {
	client      s3client.Client
	concurrency int
}

// NewPublisher creates a publisher with the given upload concurrency
func NewPublisher(client s3client.Client, concurrency int) *Publisher {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &Publisher{
		client:      client,
		concurrency: concurrency,
	}
}

// Plan walks dir and decides per file whether it needs uploading. Files
// whose remote copy already has the same size and SHA-256 checksum are
// planned as skips. The plan is sorted by key.
func (p *Publisher) Plan(ctx context.Context, dir, bucket, prefix string, excludes []string) ([]Item, error) {
	w, err := walker.New(dir, excludes)
	if err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	files, err := w.Walk()
	if err != nil {
		return nil, fmt.Errorf("walk snapshot dir: %w", err)
	}

	remoteObjects, err := p.client.ListObjects(ctx, &s3client.ListObjectsRequest{
		Bucket: bucket,
		Prefix: prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshot objects: %w", err)
	}

	remote := make(map[string]s3client.ItemMetadata, len(remoteObjects))
	for _, obj := range remoteObjects {
		remote[obj.Path] = obj
	}

	items := make([]Item, 0, len(files))
	for _, f := range files {
		item := Item{
			LocalPath: f.Path,
			Bucket:    bucket,
			Key:       path.Join(prefix, f.RelPath),
			Size:      f.Size,
		}

		obj, exists := remote[f.RelPath]
		if !exists {
			item.Action = ActionUpload
			item.Reason = "new file"
			items = append(items, item)
			continue
		}
		if obj.Size != f.Size {
			item.Action = ActionUpload
			item.Reason = "size differs"
			items = append(items, item)
			continue
		}

		localSum, err := checksum.FileSHA256Base64(f.Path)
		if err != nil {
			return nil, fmt.Errorf("checksum %s: %w", f.Path, err)
		}
		info, err := p.client.HeadObject(ctx, &s3client.HeadObjectRequest{
			Bucket: bucket,
			Key:    item.Key,
		})
		if err != nil {
			return nil, fmt.Errorf("head object %s: %w", item.Key, err)
		}

		if info.Checksum != "" && info.Checksum == localSum {
			item.Action = ActionSkip
			item.Reason = "identical"
		} else {
			item.Action = ActionUpload
			item.Reason = "checksum differs"
			item.Checksum = localSum
		}
		items = append(items, item)
	}

	return items, nil
}

// Publish uploads the planned items with bounded concurrency and returns a
// result per item, in plan order.
func (p *Publisher) Publish(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(idx int, itm Item) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = Result{
				Item:  itm,
				Error: p.publishItem(ctx, itm),
			}
		}(i, item)
	}

	wg.Wait()
	return results
}

func (p *Publisher) publishItem(ctx context.Context, item Item) error {
	if item.Action != ActionUpload {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	contentType := guessContentType(item.LocalPath)

	if item.Size > multipartThreshold {
		return p.client.UploadFile(ctx, &s3client.UploadFileRequest{
			Bucket:      item.Bucket,
			Key:         item.Key,
			FilePath:    item.LocalPath,
			ContentType: contentType,
		})
	}

	file, err := os.Open(item.LocalPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return p.client.PutObject(ctx, &s3client.PutObjectRequest{
		Bucket:      item.Bucket,
		Key:         item.Key,
		Body:        file,
		Size:        item.Size,
		Checksum:    item.Checksum,
		ContentType: contentType,
	})
}

func guessContentType(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}

// ParseS3URI splits an s3://bucket/prefix URI
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("URI must start with s3://")
	}

	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.TrimSuffix(parts[1], "/")
	}

	if bucket == "" {
		return "", "", fmt.Errorf("bucket name cannot be empty")
	}

	return bucket, prefix, nil
}
