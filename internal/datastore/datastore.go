// Package datastore copies files between the local disk and a workspace
// datastore. A datastore is any storage URL afs understands (file://,
// mem://, s3://, gs://...).
package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// Options controls a transfer.
type Options struct {
	// Overwrite replaces files that already exist at the destination.
	Overwrite bool
	// ShowProgress logs every transferred file at info level instead of debug.
	ShowProgress bool
	// Skip excludes files by their slash-separated path relative to the
	// transfer root.
	Skip func(relPath string) bool
}

// Stats summarizes a transfer.
type Stats struct {
	Files   int
	Skipped int
	Bytes   int64
}

// Store is a datastore rooted at BaseURL.
type Store struct {
	BaseURL string
	Logger  *slog.Logger

	fs afs.Service
}

// New returns a Store rooted at baseURL.
func New(baseURL string) *Store {
	return &Store{BaseURL: baseURL, fs: afs.New()}
}

func (s *Store) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// URL returns the storage URL of remotePath.
func (s *Store) URL(remotePath string) string {
	if remotePath == "" {
		return s.BaseURL
	}
	return url.Join(s.BaseURL, remotePath)
}

func (s *Store) progress(ctx context.Context, opts Options, msg, name string, size int64) {
	level := slog.LevelDebug
	if opts.ShowProgress {
		level = slog.LevelInfo
	}
	s.logger().Log(ctx, level, msg, "file", name, "size", humanize.Bytes(uint64(size)))
}

// Upload copies the files below localDir to remotePath, keeping their
// relative layout. Existing remote files are left alone unless
// opts.Overwrite is set.
func (s *Store) Upload(ctx context.Context, localDir, remotePath string, opts Options) (Stats, error) {
	var stats Stats
	info, err := os.Stat(localDir)
	if err != nil {
		return stats, fmt.Errorf("upload %s: %w", localDir, err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("upload %s: not a directory", localDir)
	}

	err = filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if opts.Skip != nil && opts.Skip(rel) {
			stats.Skipped++
			return nil
		}
		target := s.URL(path.Join(remotePath, rel))
		if !opts.Overwrite {
			ok, err := s.fs.Exists(ctx, target)
			if err != nil {
				return fmt.Errorf("check %s: %w", target, err)
			}
			if ok {
				s.logger().Debug("already uploaded", "file", rel)
				stats.Skipped++
				return nil
			}
		}
		n, err := s.uploadLocal(ctx, p, target)
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		s.progress(ctx, opts, "uploaded", rel, n)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("upload %s: %w", localDir, err)
	}
	s.logger().Info("upload finished",
		"files", stats.Files, "skipped", stats.Skipped, "size", humanize.Bytes(uint64(stats.Bytes)),
		"destination", s.URL(remotePath))
	return stats, nil
}

func (s *Store) uploadLocal(ctx context.Context, localPath, target string) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if err := s.fs.Upload(ctx, target, 0o644, f); err != nil {
		return 0, fmt.Errorf("write %s: %w", target, err)
	}
	return info.Size(), nil
}

// UploadFile copies a single local file to remotePath and returns the URL
// it was stored at. An existing remote file is replaced.
func (s *Store) UploadFile(ctx context.Context, localPath, remotePath string) (string, error) {
	target := s.URL(remotePath)
	n, err := s.uploadLocal(ctx, localPath, target)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}
	s.logger().Info("uploaded", "file", filepath.Base(localPath), "size", humanize.Bytes(uint64(n)), "url", target)
	return target, nil
}

// Download copies the files below remotePath into localDir/remotePath.
// Existing local files are kept unless opts.Overwrite is set.
func (s *Store) Download(ctx context.Context, remotePath, localDir string, opts Options) (Stats, error) {
	var stats Stats
	root := s.URL(remotePath)
	ok, err := s.fs.Exists(ctx, root)
	if err != nil {
		return stats, fmt.Errorf("download %s: %w", root, err)
	}
	if !ok {
		return stats, fmt.Errorf("download %s: %w", root, fs.ErrNotExist)
	}
	dest := filepath.Join(localDir, filepath.FromSlash(remotePath))

	var files []string
	err = s.fs.Walk(ctx, root, func(_ context.Context, _ string, parent string, info os.FileInfo, _ io.Reader) (bool, error) {
		if !info.IsDir() {
			files = append(files, path.Join(parent, info.Name()))
		}
		return true, nil
	})
	if err != nil {
		return stats, fmt.Errorf("list %s: %w", root, err)
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if opts.Skip != nil && opts.Skip(rel) {
			stats.Skipped++
			continue
		}
		local := filepath.Join(dest, filepath.FromSlash(rel))
		if !opts.Overwrite {
			if _, err := os.Stat(local); err == nil {
				s.logger().Debug("already downloaded", "file", rel)
				stats.Skipped++
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return stats, err
			}
		}
		data, err := s.fs.DownloadWithURL(ctx, url.Join(root, rel))
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", rel, err)
		}
		if err := writeLocal(local, data); err != nil {
			return stats, err
		}
		stats.Files++
		stats.Bytes += int64(len(data))
		s.progress(ctx, opts, "downloaded", rel, int64(len(data)))
	}
	s.logger().Info("download finished",
		"files", stats.Files, "skipped", stats.Skipped, "size", humanize.Bytes(uint64(stats.Bytes)),
		"destination", dest)
	return stats, nil
}

func writeLocal(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
