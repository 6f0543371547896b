package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"placesearch/internal/domain"
)

func newLocalPair(t *testing.T) (Pair, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	return Pair{Store: store, IndexPath: "places.plix", SidecarPath: "places.json"}, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestPublishFirstGenerationHasNoBackup(t *testing.T) {
	pair, dir := newLocalPair(t)
	if err := pair.Publish(context.Background(), []byte("i1"), []byte("s1")); err != nil {
		t.Fatal(err)
	}
	if readFile(t, filepath.Join(dir, "places.plix")) != "i1" {
		t.Fatal("index not written")
	}
	if _, err := os.Stat(filepath.Join(dir, "places.plix.backup")); !os.IsNotExist(err) {
		t.Fatalf("unexpected backup: %v", err)
	}
}

func TestPublishBacksUpPreviousGeneration(t *testing.T) {
	pair, dir := newLocalPair(t)
	ctx := context.Background()

	for i, gen := range []string{"1", "2", "3"} {
		if err := pair.Publish(ctx, []byte("i"+gen), []byte("s"+gen)); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	if got := readFile(t, filepath.Join(dir, "places.plix")); got != "i3" {
		t.Fatalf("index = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "places.json")); got != "s3" {
		t.Fatalf("sidecar = %q", got)
	}
	// one generation deep: the backup holds generation 2, not 1
	if got := readFile(t, filepath.Join(dir, "places.plix.backup")); got != "i2" {
		t.Fatalf("index backup = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "places.json.backup")); got != "s2" {
		t.Fatalf("sidecar backup = %q", got)
	}
}

func TestPublishCustomSuffix(t *testing.T) {
	pair, dir := newLocalPair(t)
	pair.BackupSuffix = ".prev"
	ctx := context.Background()
	_ = pair.Publish(ctx, []byte("a"), []byte("b"))
	if err := pair.Publish(ctx, []byte("c"), []byte("d")); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dir, "places.plix.prev")); got != "a" {
		t.Fatalf("backup = %q", got)
	}
}

// failingStore wraps a FileStore and fails selected operations.
type failingStore struct {
	FileStore
	failRename bool
	failWrite  string
}

func (f *failingStore) Rename(ctx context.Context, from, to string) error {
	if f.failRename {
		return errors.New("rename refused")
	}
	return f.FileStore.Rename(ctx, from, to)
}

func (f *failingStore) Write(ctx context.Context, path string) (io.WriteCloser, error) {
	if path == f.failWrite {
		return nil, errors.New("disk full")
	}
	return f.FileStore.Write(ctx, path)
}

func TestPublishBackupFailureAbortsBeforeWriting(t *testing.T) {
	pair, dir := newLocalPair(t)
	ctx := context.Background()
	if err := pair.Publish(ctx, []byte("old-i"), []byte("old-s")); err != nil {
		t.Fatal(err)
	}
	pair.Store = &failingStore{FileStore: pair.Store, failRename: true}

	err := pair.Publish(ctx, []byte("new-i"), []byte("new-s"))
	var aerr *domain.ArtifactError
	if !errors.As(err, &aerr) || aerr.Op != "backup" {
		t.Fatalf("expected backup ArtifactError, got %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "places.plix")); got != "old-i" {
		t.Fatalf("current index modified: %q", got)
	}
}

func TestPublishSidecarFailureRemovesNewIndex(t *testing.T) {
	pair, dir := newLocalPair(t)
	ctx := context.Background()
	if err := pair.Publish(ctx, []byte("old-i"), []byte("old-s")); err != nil {
		t.Fatal(err)
	}
	pair.Store = &failingStore{FileStore: pair.Store, failWrite: "places.json"}

	err := pair.Publish(ctx, []byte("new-i"), []byte("new-s"))
	var aerr *domain.ArtifactError
	if !errors.As(err, &aerr) || aerr.Op != "write" || aerr.Path != "places.json" {
		t.Fatalf("expected sidecar write error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "places.plix")); !os.IsNotExist(err) {
		t.Fatal("index left without its sidecar")
	}
	if got := readFile(t, filepath.Join(dir, "places.plix.backup")); got != "old-i" {
		t.Fatalf("backup not recoverable: %q", got)
	}
}

func TestPublishIndexFailureLeavesOnlyBackups(t *testing.T) {
	pair, dir := newLocalPair(t)
	ctx := context.Background()
	if err := pair.Publish(ctx, []byte("old-i"), []byte("old-s")); err != nil {
		t.Fatal(err)
	}
	pair.Store = &failingStore{FileStore: pair.Store, failWrite: "places.plix"}

	err := pair.Publish(ctx, []byte("new-i"), []byte("new-s"))
	var aerr *domain.ArtifactError
	if !errors.As(err, &aerr) || aerr.Op != "write" || aerr.Path != "places.plix" {
		t.Fatalf("expected index write error, got %v", err)
	}
	for _, name := range []string{"places.plix", "places.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist after a failed publish", name)
		}
	}
	if got := readFile(t, filepath.Join(dir, "places.plix.backup")); got != "old-i" {
		t.Fatalf("index backup = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "places.json.backup")); got != "old-s" {
		t.Fatalf("sidecar backup = %q", got)
	}
}

func TestLoadMissing(t *testing.T) {
	pair, _ := newLocalPair(t)
	_, _, err := pair.Load(context.Background())
	if !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
	var aerr *domain.ArtifactError
	if !errors.As(err, &aerr) || aerr.Path != "places.plix" {
		t.Fatalf("error does not name the path: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	pair, _ := newLocalPair(t)
	ctx := context.Background()
	if err := pair.Publish(ctx, []byte("idx"), []byte("side")); err != nil {
		t.Fatal(err)
	}
	idx, side, err := pair.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(idx) != "idx" || string(side) != "side" {
		t.Fatalf("got %q %q", idx, side)
	}
}

func TestPublishOverS3(t *testing.T) {
	mock := newMockS3()
	pair := Pair{Store: NewS3(mock, "b", ""), IndexPath: "i", SidecarPath: "s"}
	ctx := context.Background()
	_ = pair.Publish(ctx, []byte("1"), []byte("1"))
	if err := pair.Publish(ctx, []byte("2"), []byte("2")); err != nil {
		t.Fatal(err)
	}
	if string(mock.objects["i.backup"]) != "1" || string(mock.objects["i"]) != "2" {
		t.Fatalf("objects = %v", mock.objects)
	}
}
