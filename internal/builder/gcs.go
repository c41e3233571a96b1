package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/discochess/tablebase/internal/naming"
)

// GCSUploader uploads a packed table set to Google Cloud Storage.
type GCSUploader struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	logger *zap.Logger
}

// NewGCSUploader creates a new GCS uploader.
// gcsPath should be in the format "gs://bucket/prefix".
func NewGCSUploader(ctx context.Context, gcsPath string, logger *zap.Logger, opts ...option.ClientOption) (*GCSUploader, error) {
	bucket, prefix, err := parseGCSPath(gcsPath)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &GCSUploader{
		client: client,
		bucket: client.Bucket(bucket),
		prefix: prefix,
		logger: logger,
	}, nil
}

// parseGCSPath parses "gs://bucket/prefix" into bucket and prefix.
func parseGCSPath(gcsPath string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(gcsPath, "gs://") {
		return "", "", fmt.Errorf("invalid GCS path: must start with gs://")
	}

	p := strings.TrimPrefix(gcsPath, "gs://")
	parts := strings.SplitN(p, "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS path: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.TrimSuffix(parts[1], "/")
		if prefix != "" {
			prefix += "/"
		}
	}

	return bucket, prefix, nil
}

// localTables lists the packed table files below dir as slash-separated
// relative paths.
func localTables(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isTablePath(rel) {
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

// isTablePath reports whether rel names a table file inside a table directory.
func isTablePath(rel string) bool {
	dirName, fileName, ok := strings.Cut(rel, "/")
	if !ok || strings.Contains(fileName, "/") {
		return false
	}
	dir, ok := naming.ParseDirname(dirName)
	if !ok {
		return false
	}
	file, ok := naming.ParseFilename(fileName)
	return ok && file.Material == dir.Material
}

// Upload uploads the tables and manifest from localDir to GCS.
// Tables go first and the manifest last, so readers never see a manifest
// describing tables that are not there yet. Stale tables are removed after.
func (u *GCSUploader) Upload(ctx context.Context, localDir string, progress ProgressFunc) error {
	files, err := localTables(localDir)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	var written atomic.Int64
	current := make(map[string]bool, len(files))
	for i, rel := range files {
		if err := u.uploadFile(ctx, filepath.Join(localDir, filepath.FromSlash(rel)), u.prefix+rel, &written); err != nil {
			return fmt.Errorf("uploading %s: %w", rel, err)
		}
		current[rel] = true
		if progress != nil && (i+1)%100 == 0 {
			progress(Progress{Phase: "upload", TablesDone: i + 1, TablesTotal: len(files), BytesWritten: written.Load()})
		}
	}

	manifestPath := filepath.Join(localDir, ManifestFilename)
	if _, err := os.Stat(manifestPath); err == nil {
		if err := u.uploadFile(ctx, manifestPath, u.prefix+ManifestFilename, &written); err != nil {
			return fmt.Errorf("uploading manifest: %w", err)
		}
	}

	if err := u.cleanStale(ctx, current); err != nil {
		// Stale tables are never looked up by a registry built from the
		// new set's directory layout, so this is not fatal.
		u.logger.Warn("failed to clean stale tables", zap.Error(err))
	}

	if progress != nil {
		progress(Progress{Phase: "upload", TablesDone: len(files), TablesTotal: len(files), BytesWritten: written.Load()})
	}
	return nil
}

// cleanStale deletes table objects under the prefix that are not in current.
func (u *GCSUploader) cleanStale(ctx context.Context, current map[string]bool) error {
	it := u.bucket.Objects(ctx, &storage.Query{Prefix: u.prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}

		rel := strings.TrimPrefix(attrs.Name, u.prefix)
		if !isTablePath(rel) || current[rel] {
			continue
		}
		if err := u.bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("deleting stale table %s: %w", attrs.Name, err)
		}
		u.logger.Debug("deleted stale table", zap.String("object", attrs.Name))
	}
}

// uploadFile uploads a single file to GCS.
func (u *GCSUploader) uploadFile(ctx context.Context, localPath, key string, written *atomic.Int64) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := u.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(newProgressWriter(writer, written), file); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// Close releases resources.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
