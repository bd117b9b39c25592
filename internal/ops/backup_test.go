package ops

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ramzan/internal/blob"
	"ramzan/internal/task"
)

const sampleTasks = `[{"id":"a","title":"Fast","type":"everyday","completedDates":{"2024-03-11":true}},` +
	`{"id":"b","title":"Zakat","type":"regular","startDate":"2024-03-14T19:00:00.000Z","duration":2,"completedDates":{}}]`

var backupTime = time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)

func seededStore(t *testing.T) blob.Store {
	t.Helper()
	s := blob.NewMemoryStore()
	if err := s.Put(context.Background(), task.StorageKey, []byte(sampleTasks)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestBackupRestore_RoundTripAcrossBackends(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)

	archive := filepath.Join(t.TempDir(), "backups", "ramzan.tar.gz")
	m, err := Backup(ctx, src, nil, archive, backupTime)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if m.Tasks != 2 {
		t.Fatalf("manifest tasks = %d, want 2", m.Tasks)
	}
	if len(m.Keys) != 1 || m.Keys[0] != task.StorageKey {
		t.Fatalf("manifest keys = %v", m.Keys)
	}

	dst, err := blob.NewSQLiteStore(filepath.Join(t.TempDir(), "restore.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer dst.Close()

	if _, err := Restore(ctx, archive, dst); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	got, ok, err := dst.Get(ctx, task.StorageKey)
	if err != nil || !ok {
		t.Fatalf("get restored: ok=%v err=%v", ok, err)
	}
	if string(got) != sampleTasks {
		t.Fatalf("restored blob mismatch:\nwant=%s\ngot=%s", sampleTasks, got)
	}
}

func TestBackup_SkipsMissingKeys(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "empty.tar.gz")
	m, err := Backup(context.Background(), blob.NewMemoryStore(), nil, archive, backupTime)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if len(m.Keys) != 0 || m.Tasks != 0 {
		t.Fatalf("expected empty manifest, got %+v", m)
	}
	if _, err := Verify(archive); err != nil {
		t.Fatalf("verify empty archive: %v", err)
	}
}

func TestBackup_RejectsNestedKey(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.tar.gz")
	if _, err := Backup(context.Background(), seededStore(t), []string{"../escape"}, archive, backupTime); err == nil {
		t.Fatalf("expected nested key to be rejected")
	}
}

func writeRawArchive(t *testing.T, files map[string]string) string {
	t.Helper()
	archive := filepath.Join(t.TempDir(), "raw.tar.gz")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		if err := writeEntry(tw, name, []byte(body), backupTime); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return archive
}

func TestRestore_RejectsBadArchives(t *testing.T) {
	good := digest([]byte(sampleTasks))
	cases := map[string]map[string]string{
		"no manifest": {
			"ramzan-tasks.json": sampleTasks,
		},
		"digest mismatch": {
			"manifest.json":     `{"keys":["ramzan-tasks"],"digests":{"ramzan-tasks":"deadbeef"}}`,
			"ramzan-tasks.json": sampleTasks,
		},
		"missing entry": {
			"manifest.json": `{"keys":["ramzan-tasks"],"digests":{"ramzan-tasks":"` + good + `"}}`,
		},
		"not a task list": {
			"manifest.json":     `{"keys":["ramzan-tasks"],"digests":{"ramzan-tasks":"` + digest([]byte(`{"x":1}`)) + `"}}`,
			"ramzan-tasks.json": `{"x":1}`,
		},
		"traversal": {
			"manifest.json":  `{"keys":["../escape"],"digests":{}}`,
			"../escape.json": `[]`,
		},
	}

	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			archive := writeRawArchive(t, files)
			dst := blob.NewMemoryStore()
			_, err := Restore(context.Background(), archive, dst)
			if !errors.Is(err, ErrBadArchive) {
				t.Fatalf("expected ErrBadArchive, got %v", err)
			}
			if _, ok, _ := dst.Get(context.Background(), task.StorageKey); ok {
				t.Fatalf("store must stay untouched on a rejected archive")
			}
		})
	}
}

func TestRestore_NotGzip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plain.tar.gz")
	if err := os.WriteFile(p, []byte("not an archive"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Restore(context.Background(), p, blob.NewMemoryStore()); !errors.Is(err, ErrBadArchive) {
		t.Fatalf("expected ErrBadArchive, got %v", err)
	}
}

func TestDrill(t *testing.T) {
	r, err := Drill(context.Background(), seededStore(t), t.TempDir(), backupTime)
	if err != nil {
		t.Fatalf("drill failed: %v", err)
	}
	if _, err := os.Stat(r.Archive); err != nil {
		t.Fatalf("drill archive missing: %v", err)
	}
	if r.Manifest.Tasks != 2 {
		t.Fatalf("drill tasks = %d, want 2", r.Manifest.Tasks)
	}
}
