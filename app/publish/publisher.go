// Package publish stores generated blobs where the HTTP server can serve them.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotFound = errors.New("blob not found")

type Blob struct {
	Name            string
	Body            []byte
	ContentType     string
	ContentEncoding string
}

// Metadata is stored next to every blob.
type Metadata struct {
	ContentType     string    `json:"content_type"`
	ContentEncoding string    `json:"content_encoding,omitempty"`
	Size            int       `json:"size"`
	PublishedAt     time.Time `json:"published_at"`
}

type Publisher interface {
	Publish(ctx context.Context, blob Blob) error
}

// FilePublisher writes blobs into a directory. Each blob is replaced
// atomically, so readers see either the old or the new content.
type FilePublisher struct {
	dir string
	now func() time.Time
}

func NewFilePublisher(dir string) (*FilePublisher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create publish directory: %w", err)
	}
	return &FilePublisher{dir: dir, now: time.Now}, nil
}

func (p *FilePublisher) Publish(ctx context.Context, blob Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validName(blob.Name); err != nil {
		return err
	}

	meta, err := json.Marshal(Metadata{
		ContentType:     blob.ContentType,
		ContentEncoding: blob.ContentEncoding,
		Size:            len(blob.Body),
		PublishedAt:     p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	// Body first: a sidecar never describes content that is not there yet.
	if err := p.writeFile(blob.Name, blob.Body); err != nil {
		return err
	}
	return p.writeFile(metaName(blob.Name), meta)
}

// Open returns the stored blob and its metadata.
func (p *FilePublisher) Open(name string) (io.ReadSeeker, Metadata, error) {
	var meta Metadata
	if err := validName(name); err != nil {
		return nil, meta, ErrNotFound
	}

	raw, err := os.ReadFile(filepath.Join(p.dir, metaName(name)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, meta, ErrNotFound
	}
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read metadata for %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, meta, fmt.Errorf("failed to decode metadata for %s: %w", name, err)
	}

	body, err := os.ReadFile(filepath.Join(p.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, meta, ErrNotFound
	}
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return bytes.NewReader(body), meta, nil
}

func (p *FilePublisher) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(p.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(p.dir, name)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return nil
}

func metaName(name string) string {
	return "." + name + ".meta.json"
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid blob name %q", name)
	}
	return nil
}
