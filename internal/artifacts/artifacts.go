// Package artifacts describes the files a scenario leaves behind (screenshots,
// videos, traces, downloads) and publishes them to the artifact bucket.
package artifacts

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/oloid-qa/e2e/internal/s3client"
)

// Kind classifies an artifact.
type Kind string

const (
	Screenshot Kind = "screenshot"
	Video      Kind = "video"
	Trace      Kind = "trace"
	Download   Kind = "download"
	Report     Kind = "report"
)

// Artifact is one file produced by a test attempt. URL is set once the file
// has been published.
type Artifact struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
}

// FromFile builds an Artifact for an existing file, filling in its size.
func FromFile(kind Kind, path string) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Kind: kind, Path: path, Size: info.Size()}, nil
}

// Link is what a report should point at: the public URL when published,
// otherwise the local path.
func (a Artifact) Link() string {
	if a.URL != "" {
		return a.URL
	}
	return a.Path
}

// Name is the file name of the artifact.
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

const defaultUploadConcurrency = 4

// Store is the subset of the bucket client the uploader needs.
type Store interface {
	UploadFile(ctx context.Context, key, localPath string) (url string, size int64, err error)
}

var _ Store = (*s3client.Client)(nil)

// Uploader publishes artifacts under a run-scoped key prefix.
type Uploader struct {
	store       Store
	prefix      string
	root        string
	concurrency int
	log         *slog.Logger
}

// NewUploader returns an Uploader writing keys as <prefix>/<path relative to root>.
func NewUploader(store Store, prefix, root string, log *slog.Logger) *Uploader {
	if log == nil {
		log = slog.Default()
	}
	return &Uploader{
		store:       store,
		prefix:      prefix,
		root:        root,
		concurrency: defaultUploadConcurrency,
		log:         log.With("pkg", "artifacts"),
	}
}

// WithConcurrency bounds the number of parallel uploads.
func (u *Uploader) WithConcurrency(n int) *Uploader {
	if n > 0 {
		u.concurrency = n
	}
	return u
}

// Key returns the object key for a local file. Files outside root keep only
// their base name.
func (u *Uploader) Key(path string) string {
	rel := path
	if u.root != "" {
		r, err := filepath.Rel(u.root, path)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			r = filepath.Base(path)
		}
		rel = r
	}
	return s3client.Key(u.prefix, rel)
}

// Upload publishes every artifact and returns a copy with URLs filled in.
// Failed uploads keep their local path; their errors are joined and returned
// after every upload has finished.
func (u *Uploader) Upload(ctx context.Context, items []Artifact) ([]Artifact, error) {
	out := make([]Artifact, len(items))
	copy(out, items)

	p := pool.New().WithMaxGoroutines(u.concurrency).WithErrors().WithContext(ctx)
	for i := range out {
		i := i
		p.Go(func(ctx context.Context) error {
			key := u.Key(out[i].Path)
			url, size, err := u.store.UploadFile(ctx, key, out[i].Path)
			if err != nil {
				u.log.Warn("artifact_upload_failed", "path", out[i].Path, "key", key, "error", err)
				return err
			}
			out[i].URL = url
			out[i].Size = size
			u.log.Debug("artifact_uploaded", "kind", out[i].Kind, "key", key, "bytes", size)
			return nil
		})
	}
	return out, p.Wait()
}
