package index

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/philippgille/chromem-go"
	"golang.org/x/crypto/blake2b"
)

const (
	indexFile = "index.gob.gz"
	metaFile  = "meta.json"
	tmpPrefix = ".tmp-"
)

var ErrStorage = errors.New("index storage failure")

// StorageError is returned for any filesystem failure of the cache.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("index cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Key derives the cache identity of a document: its base name without the
// final extension. Two documents with the same base name share a key.
func Key(document string) string {
	base := filepath.Base(document)
	key := strings.TrimSuffix(base, filepath.Ext(base))
	if key == "" {
		return base
	}
	return key
}

// Cache persists one index per document key under root, with an in-memory
// layer in front. There is no locking: concurrent stores of the same key
// race and the last rename wins.
type Cache struct {
	root  string
	embed Embedders
	mem   *cache.Cache
}

func NewCache(root string, embed Embedders) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Key: root, Err: err}
	}
	return &Cache{
		root:  root,
		embed: embed,
		mem:   cache.New(30*time.Minute, 10*time.Minute),
	}, nil
}

func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) entryDir(key string) string {
	return filepath.Join(c.root, key)
}

func (c *Cache) Exists(document string) bool {
	_, err := os.Stat(filepath.Join(c.entryDir(Key(document)), indexFile))
	return err == nil
}

// Load returns the cached index for document. found is false when nothing
// is cached; err is a *StorageError when an entry exists but cannot be read.
func (c *Cache) Load(document string) (idx *Index, found bool, err error) {
	key := Key(document)
	if x, ok := c.mem.Get(key); ok {
		return x.(*Index), true, nil
	}

	dir := c.entryDir(key)
	indexPath := filepath.Join(dir, indexFile)
	if _, statErr := os.Stat(indexPath); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &StorageError{Op: "load", Key: key, Err: statErr}
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(indexPath, ""); err != nil {
		return nil, false, &StorageError{Op: "load", Key: key, Err: err}
	}
	col := db.GetCollection(collectionName, c.embed.Document)
	if col == nil {
		return nil, false, &StorageError{Op: "load", Key: key, Err: fmt.Errorf("collection %q missing", collectionName)}
	}

	var meta Meta
	raw, err := os.ReadFile(filepath.Join(dir, metaFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, false, &StorageError{Op: "load", Key: key, Err: err}
		}
	case errors.Is(err, os.ErrNotExist):
		meta = Meta{Document: key}
	default:
		return nil, false, &StorageError{Op: "load", Key: key, Err: err}
	}

	idx = &Index{db: db, col: col, query: c.embed.Query, Meta: meta}
	c.mem.Set(key, idx, cache.DefaultExpiration)
	return idx, true, nil
}

// Store writes idx under document's key. Files are written to a temporary
// directory first and renamed into place one by one.
func (c *Cache) Store(document string, idx *Index) error {
	key := Key(document)

	tmp, err := os.MkdirTemp(c.root, tmpPrefix+key+"-")
	if err != nil {
		return &StorageError{Op: "store", Key: key, Err: err}
	}
	defer os.RemoveAll(tmp)

	if err := idx.db.ExportToFile(filepath.Join(tmp, indexFile), true, ""); err != nil {
		return &StorageError{Op: "store", Key: key, Err: err}
	}
	meta, err := json.MarshalIndent(idx.Meta, "", "  ")
	if err != nil {
		return &StorageError{Op: "store", Key: key, Err: err}
	}
	if err := os.WriteFile(filepath.Join(tmp, metaFile), meta, 0o644); err != nil {
		return &StorageError{Op: "store", Key: key, Err: err}
	}

	dir := c.entryDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "store", Key: key, Err: err}
	}
	for _, name := range []string{metaFile, indexFile} {
		if err := os.Rename(filepath.Join(tmp, name), filepath.Join(dir, name)); err != nil {
			return &StorageError{Op: "store", Key: key, Err: err}
		}
	}

	c.mem.Set(key, idx, cache.DefaultExpiration)
	return nil
}

// ClearAll removes every cached entry, in memory and on disk.
func (c *Cache) ClearAll() error {
	c.mem.Flush()

	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &StorageError{Op: "clear", Key: "*", Err: err}
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.root, e.Name())); err != nil {
			return &StorageError{Op: "clear", Key: e.Name(), Err: err}
		}
	}
	return nil
}

// Fingerprint hashes the file content so a cached entry can be checked
// against the document it is about to serve.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
