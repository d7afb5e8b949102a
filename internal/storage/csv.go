package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iiviie/liveblog-watch/internal/models"
)

var csvHeader = []string{"id", "title"}

// CSVStore implements PostStore on a flat CSV file with an "id,title" header
type CSVStore struct {
	path  string
	posts []*models.Post
	known map[string]struct{}
}

// LoadCSV reads the store at path. A missing or empty file is a fresh store.
// Any malformed content fails the whole load with *CorruptStoreError.
func LoadCSV(path string) (*CSVStore, error) {
	store := &CSVStore{
		path:  path,
		known: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open post store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return store, nil
	}
	if err != nil {
		return nil, corrupt(path, err)
	}
	if len(header) != len(csvHeader) || header[0] != csvHeader[0] || header[1] != csvHeader[1] {
		return nil, &CorruptStoreError{Path: path, Line: 1, Err: fmt.Errorf("unexpected header %q", header)}
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, corrupt(path, err)
		}
		if record[0] == "" {
			line, _ := r.FieldPos(0)
			return nil, &CorruptStoreError{Path: path, Line: line, Err: errors.New("empty post id")}
		}

		store.posts = append(store.posts, &models.Post{ID: record[0], Title: record[1]})
		store.known[record[0]] = struct{}{}
	}

	return store, nil
}

func corrupt(path string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &CorruptStoreError{Path: path, Line: perr.Line, Err: perr.Err}
	}
	return &CorruptStoreError{Path: path, Err: err}
}

// Path returns the backing file
func (s *CSVStore) Path() string {
	return s.path
}

// Len returns the number of known posts
func (s *CSVStore) Len() int {
	return len(s.posts)
}

// Posts returns every known post, newest first
func (s *CSVStore) Posts() []*models.Post {
	return append([]*models.Post(nil), s.posts...)
}

// NewPosts returns the candidates whose id is not yet known, in input order
func (s *CSVStore) NewPosts(candidates []*models.Post) []*models.Post {
	var fresh []*models.Post
	for _, p := range candidates {
		if _, ok := s.known[p.ID]; !ok {
			fresh = append(fresh, p)
		}
	}
	return fresh
}

// StorePosts rewrites the store with posts ahead of the known ones. Posts
// that are already known, or repeated within the batch, are written once.
// The file is replaced atomically so a crash leaves the old or the new
// content, never a truncated mix.
func (s *CSVStore) StorePosts(posts []*models.Post) error {
	batch := make(map[string]struct{}, len(posts))
	all := make([]*models.Post, 0, len(posts)+len(s.posts))
	for _, p := range posts {
		if p.ID == "" {
			return errors.New("store posts: empty post id")
		}
		if _, ok := s.known[p.ID]; ok {
			continue
		}
		if _, ok := batch[p.ID]; ok {
			continue
		}
		batch[p.ID] = struct{}{}
		all = append(all, p)
	}
	all = append(all, s.posts...)

	if err := writeCSVAtomic(s.path, all); err != nil {
		return fmt.Errorf("store posts: %w", err)
	}

	s.posts = all
	for id := range batch {
		s.known[id] = struct{}{}
	}
	return nil
}

func writeCSVAtomic(path string, posts []*models.Post) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range posts {
		if err = w.Write([]string{p.ID, p.Title}); err != nil {
			return err
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// CSVLoader returns a loader that opens the CSV store at path on each call
func CSVLoader(path string) func() (PostStore, error) {
	return func() (PostStore, error) {
		store, err := LoadCSV(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
