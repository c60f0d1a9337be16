package photos

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return store
}

func writePhoto(t *testing.T, store *Store, side, name string) {
	t.Helper()
	path, err := store.Path(side, name)
	if err != nil {
		t.Fatalf("Path(%s, %s) error: %v", side, name, err)
	}
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestStore_CreatesSideDirs(t *testing.T) {
	base := t.TempDir()
	if _, err := NewStore(base); err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	for _, side := range Sides {
		if _, err := os.Stat(filepath.Join(base, side)); err != nil {
			t.Errorf("side dir %s missing: %v", side, err)
		}
	}
}

func TestStore_NewNameFormat(t *testing.T) {
	store := newTestStore(t)
	at := time.Date(2026, 8, 23, 14, 30, 5, 123456000, time.UTC)

	name := store.NewName(SideLeft, at)
	want := "left_20260823_143005.123456.jpg"
	if name != want {
		t.Errorf("NewName = %q, want %q", name, want)
	}
}

func TestStore_NamesSortChronologically(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 8, 23, 14, 30, 5, 0, time.UTC)

	earlier := store.NewName(SideLeft, base)
	later := store.NewName(SideLeft, base.Add(time.Microsecond))
	if !(later > earlier) {
		t.Errorf("names do not sort chronologically: %q vs %q", earlier, later)
	}
}

func TestStore_ListNewestFirstCapped(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < ListLimit+5; i++ {
		writePhoto(t, store, SideLeft, fmt.Sprintf("left_20260823_1430%02d.%06d.jpg", i%60, i))
	}

	photos, err := store.List(SideLeft)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(photos) != ListLimit {
		t.Fatalf("List returned %d photos, want %d", len(photos), ListLimit)
	}
	for i := 1; i < len(photos); i++ {
		if photos[i-1].Name < photos[i].Name {
			t.Fatalf("List not newest-first at %d: %q before %q", i, photos[i-1].Name, photos[i].Name)
		}
	}
}

func TestStore_ListIgnoresForeignFiles(t *testing.T) {
	store := newTestStore(t)
	writePhoto(t, store, SideRight, "right_20260823_143005.000000.jpg")

	dir, _ := store.SideDir(SideRight)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, ".capture-123.jpg.tmp"), []byte("x"), 0o644)

	photos, err := store.List(SideRight)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(photos) != 1 {
		t.Errorf("List returned %d photos, want 1", len(photos))
	}
}

func TestStore_PathRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	bad := []string{
		"../escape.jpg",
		"sub/dir.jpg",
		"..jpg",
		".hidden.jpg",
		"photo.png",
		"",
	}
	for _, name := range bad {
		if _, err := store.Path(SideLeft, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Path(%q) error = %v, want ErrInvalidName", name, err)
		}
	}

	if _, err := store.Path("up", "x.jpg"); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("Path with bad side = %v, want ErrInvalidSide", err)
	}
}

func TestStore_DeleteAndCounts(t *testing.T) {
	store := newTestStore(t)
	writePhoto(t, store, SideLeft, "left_20260823_143005.000000.jpg")
	writePhoto(t, store, SideLeft, "left_20260823_143006.000000.jpg")
	writePhoto(t, store, SideRight, "right_20260823_143005.000000.jpg")

	counts := store.Counts()
	if counts[SideLeft] != 2 || counts[SideRight] != 1 {
		t.Errorf("Counts = %v, want left:2 right:1", counts)
	}

	if err := store.Delete(SideLeft, "left_20260823_143005.000000.jpg"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n, _ := store.Count(SideLeft); n != 1 {
		t.Errorf("Count after delete = %d, want 1", n)
	}

	deleted, err := store.DeleteAll(SideLeft)
	if err != nil {
		t.Fatalf("DeleteAll error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteAll removed %d, want 1", deleted)
	}
	if n, _ := store.Count(SideLeft); n != 0 {
		t.Errorf("Count after DeleteAll = %d, want 0", n)
	}
	// The other side is untouched.
	if n, _ := store.Count(SideRight); n != 1 {
		t.Errorf("right count = %d, want 1", n)
	}
}

func TestStore_DeleteMissing(t *testing.T) {
	store := newTestStore(t)
	if err := store.Delete(SideLeft, "left_20990101_000000.000000.jpg"); err == nil {
		t.Error("Delete of missing photo should error")
	}
}
