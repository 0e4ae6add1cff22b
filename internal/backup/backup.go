// Package backup writes and restores tar.gz snapshots of the showcase
// database and its config file.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/HerbHall/showcase/internal/version"
)

// ManifestName is the archive entry describing the snapshot.
const ManifestName = "manifest.json"

// ErrExists is returned by Restore when a target file already exists and
// force is not set.
var ErrExists = errors.New("file exists")

// Manifest records what an archive contains.
type Manifest struct {
	CreatedAt time.Time `json:"created_at"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
	Config    string    `json:"config,omitempty"`
}

// Backup creates a tar.gz archive at outputPath holding a consistent copy of
// the SQLite database at dbPath and, when configPath names an existing file,
// the config file. The copy is taken with VACUUM INTO, so a running server
// can keep writing while the snapshot is made.
func Backup(ctx context.Context, dbPath, configPath, outputPath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database file not found: %w", err)
	}

	tmp, err := os.MkdirTemp("", "showcase-backup-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	snapshot := filepath.Join(tmp, filepath.Base(dbPath))
	if err := vacuumInto(ctx, dbPath, snapshot); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}

	manifest := Manifest{
		CreatedAt: time.Now().UTC(),
		Version:   version.Short(),
		Database:  filepath.Base(dbPath),
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			manifest.Config = filepath.Base(configPath)
		}
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writeArchive(outFile, manifest, snapshot, configPath); err != nil {
		outFile.Close()
		os.Remove(outputPath)
		return err
	}
	return outFile.Close()
}

func writeArchive(w io.Writer, manifest Manifest, snapshot, configPath string) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	hdr := &tar.Header{Name: ManifestName, Mode: 0o644, Size: int64(len(data)), ModTime: manifest.CreatedAt}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err := tw.Write(data); err != nil {
		return err
	}

	if err := addFileToTar(tw, snapshot, manifest.Database); err != nil {
		return fmt.Errorf("adding database to archive: %w", err)
	}
	if manifest.Config != "" {
		if err := addFileToTar(tw, configPath, manifest.Config); err != nil {
			return fmt.Errorf("adding config to archive: %w", err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

// vacuumInto writes a compacted, transactionally consistent copy of the
// database at src to dst.
func vacuumInto(ctx context.Context, src, dst string) error {
	db, err := sql.Open("sqlite", src)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "VACUUM INTO ?", dst)
	return err
}

// addFileToTar adds a single file to the tar archive under the given name.
func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}

// Restore extracts an archive made by Backup into dataDir and returns its
// manifest. Existing files are only replaced when force is set. Entries with
// directory components are rejected.
func Restore(ctx context.Context, inputPath, dataDir string, force bool) (*Manifest, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	defer gr.Close()

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var manifest *Manifest
	tr := tar.NewReader(gr)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if hdr.Name != filepath.Base(hdr.Name) || strings.HasPrefix(hdr.Name, ".") {
			return nil, fmt.Errorf("archive entry %q: unsafe name", hdr.Name)
		}

		if hdr.Name == ManifestName {
			var m Manifest
			if err := json.NewDecoder(tr).Decode(&m); err != nil {
				return nil, fmt.Errorf("decode manifest: %w", err)
			}
			manifest = &m
			continue
		}
		if err := extract(tr, filepath.Join(dataDir, hdr.Name), force); err != nil {
			return nil, err
		}
	}
	if manifest == nil {
		return nil, fmt.Errorf("archive %s has no %s", inputPath, ManifestName)
	}
	return manifest, nil
}

func extract(r io.Reader, target string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if force {
		// Stale WAL files would be replayed over the restored database.
		_ = os.Remove(target + "-wal")
		_ = os.Remove(target + "-shm")
	} else {
		flags |= os.O_EXCL
	}
	out, err := os.OpenFile(target, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w (use -force to overwrite)", target, ErrExists)
		}
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	return out.Close()
}
