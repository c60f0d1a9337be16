// Package photos persists training images under <base>/left and
// <base>/right and serves the REST layer's list/delete operations.
package photos

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Training photo sides. The two directories correspond to the two
// steering labels the collected dataset trains on.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Sides lists the valid photo sides.
var Sides = []string{SideLeft, SideRight}

// ListLimit caps how many photos List returns, newest first.
const ListLimit = 50

// ValidSide reports whether side names a photo directory.
func ValidSide(side string) bool {
	return side == SideLeft || side == SideRight
}

// Photo describes one stored training image.
type Photo struct {
	Name    string    `json:"name"`
	Side    string    `json:"side"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mtime"`
}

// Store owns the training-photo directory tree.
type Store struct {
	base string
}

// NewStore creates a store rooted at base and creates the side
// directories on demand.
func NewStore(base string) (*Store, error) {
	s := &Store{base: base}
	for _, side := range Sides {
		if err := os.MkdirAll(s.sideDir(side), 0o755); err != nil {
			return nil, fmt.Errorf("photos: create %s dir: %w", side, err)
		}
	}
	return s, nil
}

// Base returns the store's root directory.
func (s *Store) Base() string {
	return s.base
}

func (s *Store) sideDir(side string) string {
	return filepath.Join(s.base, side)
}

// NewName returns a timestamp-derived filename for side. Microsecond
// resolution keeps rapid captures distinguishable, and lexical order
// matches chronological order.
func (s *Store) NewName(side string, at time.Time) string {
	return fmt.Sprintf("%s_%s.jpg", side, at.Format("20060102_150405.000000"))
}

// Path resolves a photo's absolute path, rejecting names that could
// escape the side directory.
func (s *Store) Path(side, name string) (string, error) {
	if !ValidSide(side) {
		return "", ErrInvalidSide
	}
	if name == "" || name != filepath.Base(name) ||
		strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".jpg") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.sideDir(side), name), nil
}

// SideDir returns the directory for side.
func (s *Store) SideDir(side string) (string, error) {
	if !ValidSide(side) {
		return "", ErrInvalidSide
	}
	return s.sideDir(side), nil
}

// List returns up to ListLimit photos for side, newest first.
func (s *Store) List(side string) ([]Photo, error) {
	if !ValidSide(side) {
		return nil, ErrInvalidSide
	}

	entries, err := os.ReadDir(s.sideDir(side))
	if err != nil {
		return nil, fmt.Errorf("photos: list %s: %w", side, err)
	}

	photos := make([]Photo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jpg") || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		photos = append(photos, Photo{
			Name:    name,
			Side:    side,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// Timestamped names sort chronologically, so name order is enough.
	sort.Slice(photos, func(i, j int) bool { return photos[i].Name > photos[j].Name })
	if len(photos) > ListLimit {
		photos = photos[:ListLimit]
	}
	return photos, nil
}

// Count returns the number of photos stored for side.
func (s *Store) Count(side string) (int, error) {
	if !ValidSide(side) {
		return 0, ErrInvalidSide
	}
	entries, err := os.ReadDir(s.sideDir(side))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jpg") && !strings.HasPrefix(entry.Name(), ".") {
			n++
		}
	}
	return n, nil
}

// Counts returns the per-side photo counts.
func (s *Store) Counts() map[string]int {
	counts := make(map[string]int, len(Sides))
	for _, side := range Sides {
		n, err := s.Count(side)
		if err != nil {
			continue
		}
		counts[side] = n
	}
	return counts
}

// Delete removes one photo.
func (s *Store) Delete(side, name string) error {
	path, err := s.Path(side, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("photos: delete %s/%s: %w", side, name, err)
	}
	return nil
}

// DeleteAll removes every photo for side and returns how many went.
func (s *Store) DeleteAll(side string) (int, error) {
	photos, err := s.List(side)
	if err != nil {
		return 0, err
	}
	// List caps at ListLimit; loop until the directory is drained.
	deleted := 0
	for len(photos) > 0 {
		for _, p := range photos {
			if err := s.Delete(side, p.Name); err != nil {
				return deleted, err
			}
			deleted++
		}
		photos, err = s.List(side)
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}
