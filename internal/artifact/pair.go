package artifact

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"

	"placesearch/internal/domain"
)

// DefaultBackupSuffix is appended to artifact paths to form backup paths.
const DefaultBackupSuffix = ".backup"

// Pair is the index file and its metadata sidecar, always replaced together.
type Pair struct {
	Store        FileStore
	IndexPath    string
	SidecarPath  string
	BackupSuffix string
}

func (p Pair) suffix() string {
	if p.BackupSuffix == "" {
		return DefaultBackupSuffix
	}
	return p.BackupSuffix
}

// BackupPaths returns the backup locations of the index and the sidecar.
func (p Pair) BackupPaths() (string, string) {
	return p.IndexPath + p.suffix(), p.SidecarPath + p.suffix()
}

// Publish replaces the current generation with the given encoded artifacts.
//
// Existing files are first moved to their backup paths (overwriting older
// backups), then the index is written, then the sidecar. A failed backup
// aborts before anything new is written. If a write fails, whatever part of
// the new generation was written is removed so that an index is never
// visible without its sidecar; the backups stay in place.
func (p Pair) Publish(ctx context.Context, index, sidecar []byte) error {
	indexBackup, sidecarBackup := p.BackupPaths()
	for _, mv := range [][2]string{{p.IndexPath, indexBackup}, {p.SidecarPath, sidecarBackup}} {
		ok, err := p.Store.Exists(ctx, mv[0])
		if err != nil {
			return domain.NewArtifactError("stat", mv[0], err)
		}
		if !ok {
			continue
		}
		if err := p.Store.Rename(ctx, mv[0], mv[1]); err != nil {
			return domain.NewArtifactError("backup", mv[0], err)
		}
	}

	if err := p.write(ctx, p.IndexPath, index); err != nil {
		p.discard(ctx)
		return domain.NewArtifactError("write", p.IndexPath, err)
	}
	if err := p.write(ctx, p.SidecarPath, sidecar); err != nil {
		p.discard(ctx)
		return domain.NewArtifactError("write", p.SidecarPath, err)
	}
	return nil
}

// Load reads both artifacts of the current generation. A missing file is
// reported as domain.ErrResourceNotFound naming the path.
func (p Pair) Load(ctx context.Context) (index, sidecar []byte, err error) {
	if index, err = p.read(ctx, p.IndexPath); err != nil {
		return nil, nil, err
	}
	if sidecar, err = p.read(ctx, p.SidecarPath); err != nil {
		return nil, nil, err
	}
	return index, sidecar, nil
}

func (p Pair) read(ctx context.Context, path string) ([]byte, error) {
	rc, err := p.Store.Read(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewArtifactError("load", path, domain.ErrResourceNotFound)
		}
		return nil, domain.NewArtifactError("load", path, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, domain.NewArtifactError("load", path, err)
	}
	return data, nil
}

func (p Pair) write(ctx context.Context, path string, data []byte) error {
	w, err := p.Store.Write(ctx, path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (p Pair) discard(ctx context.Context) {
	_ = p.Store.Delete(ctx, p.IndexPath)
	_ = p.Store.Delete(ctx, p.SidecarPath)
}
