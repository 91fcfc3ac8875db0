package db

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const ext = ".json"

func init() {
	MustRegister("file", func(opt *Options) (Store, error) {
		return NewFileStore(opt.Dir)
	})
}

// FileStore keeps each document as <dir>/<key>.json
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating data dir")
	}
	return &FileStore{dir: dir}, nil
}

// Dir is the directory documents live in
func (s *FileStore) Dir() string {
	return s.dir
}

// Path maps a key to its file. Keys are plain file names, with or
// without the .json suffix.
func (s *FileStore) Path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", errors.Wrapf(ErrBadKey, "%q", key)
	}
	if !strings.HasSuffix(key, ext) {
		key += ext
	}
	return filepath.Join(s.dir, key), nil
}

func (s *FileStore) Get(key string, dst interface{}) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrapf(ErrNotFound, "%q", key)
	} else if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Put writes through a temporary file so a crash never leaves a torn
// document behind.
func (s *FileStore) Put(key string, val interface{}) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(val); err != nil {
		return errors.Wrap(err, "encoding document")
	}

	tmp, err := ioutil.TempFile(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) List() ([]Entry, error) {
	infos, err := ioutil.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	list := []Entry{}
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ext) || strings.HasPrefix(fi.Name(), ".") {
			continue
		}
		list = append(list, Entry{
			Name:     fi.Name(),
			Path:     filepath.Join(s.dir, fi.Name()),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Modified.Equal(list[j].Modified) {
			return list[i].Modified.After(list[j].Modified)
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}
