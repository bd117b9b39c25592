// Package ops snapshots the blob store into a portable .tar.gz and back.
// Archives are backend-neutral: a file-store backup restores into sqlite
// and vice versa.
package ops

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ramzan/internal/blob"
	"ramzan/internal/model"
	"ramzan/internal/task"
)

const manifestName = "manifest.json"

// maxEntrySize bounds a single archived blob.
const maxEntrySize = 64 << 20

var ErrBadArchive = errors.New("invalid backup archive")

type Manifest struct {
	CreatedAt time.Time         `json:"createdAt"`
	Keys      []string          `json:"keys"`
	Digests   map[string]string `json:"digests"`
	Tasks     int               `json:"tasks"`
}

// DefaultKeys is what the CLI backs up when no key is named.
func DefaultKeys() []string {
	return []string{task.StorageKey}
}

// Backup writes each present key as <key>.json plus a manifest. Missing
// keys are skipped and left out of the manifest.
func Backup(ctx context.Context, store blob.Store, keys []string, archivePath string, now time.Time) (Manifest, error) {
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	if archivePath == "" || archivePath == "." {
		return Manifest{}, fmt.Errorf("archive path is required")
	}
	if len(keys) == 0 {
		keys = DefaultKeys()
	}

	m := Manifest{CreatedAt: now.UTC(), Digests: map[string]string{}}
	entries := map[string][]byte{}
	for _, key := range keys {
		if err := validateKey(key); err != nil {
			return Manifest{}, err
		}
		b, ok, err := store.Get(ctx, key)
		if err != nil {
			return Manifest{}, fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		entries[key] = b
		m.Keys = append(m.Keys, key)
		m.Digests[key] = digest(b)
		if key == task.StorageKey {
			n, err := countTasks(b)
			if err != nil {
				return Manifest{}, fmt.Errorf("read %s: %w", key, err)
			}
			m.Tasks = n
		}
	}
	sort.Strings(m.Keys)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return Manifest{}, err
	}
	f, err := os.Create(archivePath)
	if err != nil {
		return Manifest{}, err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	if err := writeEntry(tw, manifestName, mb, m.CreatedAt); err != nil {
		return Manifest{}, err
	}
	for _, key := range m.Keys {
		if err := writeEntry(tw, key+".json", entries[key], m.CreatedAt); err != nil {
			return Manifest{}, err
		}
	}

	if err := tw.Close(); err != nil {
		return Manifest{}, err
	}
	if err := gz.Close(); err != nil {
		return Manifest{}, err
	}
	return m, f.Close()
}

// Restore reads an archive, checks every entry against the manifest digest
// and then writes the blobs into store. Nothing is written unless the whole
// archive checks out.
func Restore(ctx context.Context, archivePath string, store blob.Store) (Manifest, error) {
	m, entries, err := readArchive(archivePath)
	if err != nil {
		return Manifest{}, err
	}
	for _, key := range m.Keys {
		if err := store.Put(ctx, key, entries[key]); err != nil {
			return Manifest{}, fmt.Errorf("write %s: %w", key, err)
		}
	}
	return m, nil
}

// Verify reads the archive without restoring it.
func Verify(archivePath string) (Manifest, error) {
	m, _, err := readArchive(archivePath)
	return m, err
}

type DrillReport struct {
	Archive  string
	Manifest Manifest
}

// Drill backs store up into workDir, restores the archive into a scratch
// memory store and compares every blob byte for byte.
func Drill(ctx context.Context, store blob.Store, workDir string, now time.Time) (DrillReport, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return DrillReport{}, err
	}
	archive := filepath.Join(workDir, "ramzan-drill-"+now.UTC().Format("20060102T150405Z")+".tar.gz")

	m, err := Backup(ctx, store, DefaultKeys(), archive, now)
	if err != nil {
		return DrillReport{}, err
	}
	scratch := blob.NewMemoryStore()
	if _, err := Restore(ctx, archive, scratch); err != nil {
		return DrillReport{}, err
	}
	for _, key := range m.Keys {
		want, _, err := store.Get(ctx, key)
		if err != nil {
			return DrillReport{}, err
		}
		got, _, err := scratch.Get(ctx, key)
		if err != nil {
			return DrillReport{}, err
		}
		if digest(want) != digest(got) {
			return DrillReport{}, fmt.Errorf("digest mismatch for %s after restore", key)
		}
	}
	return DrillReport{Archive: archive, Manifest: m}, nil
}

func readArchive(archivePath string) (Manifest, map[string][]byte, error) {
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	if archivePath == "" || archivePath == "." {
		return Manifest{}, nil, fmt.Errorf("archive path is required")
	}
	f, err := os.Open(archivePath)
	if err != nil {
		return Manifest{}, nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Manifest{}, nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	defer gz.Close()

	var (
		m        Manifest
		haveMeta bool
		entries  = map[string][]byte{}
	)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Manifest{}, nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		b, err := io.ReadAll(io.LimitReader(tr, maxEntrySize+1))
		if err != nil {
			return Manifest{}, nil, err
		}
		if len(b) > maxEntrySize {
			return Manifest{}, nil, fmt.Errorf("%w: %s too large", ErrBadArchive, hdr.Name)
		}

		if hdr.Name == manifestName {
			if err := json.Unmarshal(b, &m); err != nil {
				return Manifest{}, nil, fmt.Errorf("%w: manifest: %v", ErrBadArchive, err)
			}
			haveMeta = true
			continue
		}
		key, ok := strings.CutSuffix(hdr.Name, ".json")
		if !ok {
			continue
		}
		if err := validateKey(key); err != nil {
			return Manifest{}, nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		entries[key] = b
	}

	if !haveMeta {
		return Manifest{}, nil, fmt.Errorf("%w: missing %s", ErrBadArchive, manifestName)
	}
	for _, key := range m.Keys {
		if err := validateKey(key); err != nil {
			return Manifest{}, nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		b, ok := entries[key]
		if !ok {
			return Manifest{}, nil, fmt.Errorf("%w: missing entry for %s", ErrBadArchive, key)
		}
		if digest(b) != m.Digests[key] {
			return Manifest{}, nil, fmt.Errorf("%w: digest mismatch for %s", ErrBadArchive, key)
		}
		if key == task.StorageKey {
			if _, err := countTasks(b); err != nil {
				return Manifest{}, nil, fmt.Errorf("%w: %s: %v", ErrBadArchive, key, err)
			}
		}
	}
	return m, entries, nil
}

func writeEntry(tw *tar.Writer, name string, body []byte, mod time.Time) error {
	if err := tw.WriteHeader(&tar.Header{
		Name:     name,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(body)),
		ModTime:  mod,
	}); err != nil {
		return err
	}
	_, err := tw.Write(body)
	return err
}

// validateKey keeps archive entries flat.
func validateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return blob.ErrEmptyKey
	case strings.ContainsAny(key, `/\`), key == "..", key == ".":
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

func countTasks(b []byte) (int, error) {
	var tasks []model.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return 0, err
	}
	return len(tasks), nil
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
