// Package video maps video names to files on disk. A video is either a
// single file <base>/<name>.<ext>, or a directory <base>/<name>/ whose
// video files are the perspectives of one multi-camera recording.
package video

import (
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// WebRoot is the URL prefix video files are served under
const WebRoot = "/videos/"

var (
	ErrNotFound = errors.New("video not found")
	ErrBadDir   = errors.New("not a video directory")
)

// Kind tells single-file videos from multi-perspective directories
type Kind string

const (
	Single = Kind("single")
	Multi  = Kind("multi")
)

var extensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wmv": true, ".flv": true, ".webm": true,
}

// IsVideo reports whether name has a recognised video extension
func IsVideo(name string) bool {
	return extensions[strings.ToLower(filepath.Ext(name))]
}

// Source is one video known to the catalog
type Source struct {
	Name string `json:"name"`
	Kind Kind   `json:"type"`
	// Path is the file for Single, the directory for Multi
	Path  string   `json:"path"`
	Files []string `json:"files"`
}

// Perspectives lists the perspective files, empty for a single file
func (s *Source) Perspectives() []string {
	if s.Kind != Multi {
		return []string{}
	}
	return append([]string{}, s.Files...)
}

// Catalog caches a scan of the base directory. The cache is dropped by
// SetBase, Invalidate and, while Watch runs, by file system changes.
type Catalog struct {
	mu      sync.RWMutex
	base    string
	cache   map[string]*Source
	watcher *fsnotify.Watcher
	log     logrus.FieldLogger
}

func New(base string, log logrus.FieldLogger) *Catalog {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if base == "" {
		base = filepath.Join("static", "videos")
	}
	return &Catalog{base: base, log: log}
}

// Base is the directory being cataloged
func (c *Catalog) Base() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base
}

// SetBase points the catalog at dir. A running Watch follows it.
func (c *Catalog) SetBase(dir string) {
	c.mu.Lock()
	c.base = dir
	c.cache = nil
	w := c.watcher
	c.mu.Unlock()
	if w != nil {
		c.rewatch(w, dir)
	}
	c.log.WithField("dir", dir).Info("video dir set")
}

// UseDir is SetBase for a directory that must already exist
func (c *Catalog) UseDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(ErrBadDir, err.Error())
	}
	if !fi.IsDir() {
		return errors.Wrapf(ErrBadDir, "%s is not a directory", dir)
	}
	c.SetBase(dir)
	return nil
}

// Invalidate drops the cached scan
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.cache = nil
	c.mu.Unlock()
}

func scan(base string) (map[string]*Source, error) {
	infos, err := ioutil.ReadDir(base)
	if err != nil {
		return nil, err
	}
	found := map[string]*Source{}
	for _, fi := range infos {
		p := filepath.Join(base, fi.Name())
		switch {
		case fi.Mode().IsRegular() && IsVideo(fi.Name()):
			name := strings.TrimSuffix(fi.Name(), filepath.Ext(fi.Name()))
			found[name] = &Source{Name: name, Kind: Single, Path: p, Files: []string{fi.Name()}}
		case fi.IsDir():
			sub, err := ioutil.ReadDir(p)
			if err != nil {
				return nil, err
			}
			var files []string
			for _, f := range sub {
				if f.Mode().IsRegular() && IsVideo(f.Name()) {
					files = append(files, f.Name())
				}
			}
			if len(files) > 0 {
				sort.Strings(files)
				found[fi.Name()] = &Source{Name: fi.Name(), Kind: Multi, Path: p, Files: files}
			}
		}
	}
	return found, nil
}

func (c *Catalog) sources() map[string]*Source {
	c.mu.RLock()
	cache := c.cache
	c.mu.RUnlock()
	if cache != nil {
		return cache
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil {
		return c.cache
	}
	found, err := scan(c.base)
	if os.IsNotExist(err) {
		c.log.WithField("dir", c.base).Warn("video dir does not exist")
		found = map[string]*Source{}
	} else if err != nil {
		c.log.WithError(err).WithField("dir", c.base).Error("scanning video dir")
		return map[string]*Source{}
	}
	c.log.WithFields(logrus.Fields{"dir": c.base, "videos": len(found)}).Info("video dir scanned")
	c.cache = found
	return found
}

// List returns every video sorted by name
func (c *Catalog) List() []Source {
	src := c.sources()
	list := make([]Source, 0, len(src))
	for _, s := range src {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Lookup returns the named video
func (c *Catalog) Lookup(video string) (Source, error) {
	s, ok := c.sources()[video]
	if !ok {
		return Source{}, errors.Wrapf(ErrNotFound, "%q", video)
	}
	return *s, nil
}

// Perspectives lists the perspective files of video
func (c *Catalog) Perspectives(video string) ([]string, error) {
	s, err := c.Lookup(video)
	if err != nil {
		return nil, err
	}
	return s.Perspectives(), nil
}

// Find returns the file to play for video. A multi-perspective video
// falls back to its first file when perspective is empty or missing.
func (c *Catalog) Find(video, perspective string) (string, error) {
	s, err := c.Lookup(video)
	if err != nil {
		return "", err
	}
	if s.Kind == Single {
		return s.Path, nil
	}
	for _, f := range s.Files {
		if f == perspective {
			return filepath.Join(s.Path, f), nil
		}
	}
	if perspective != "" {
		c.log.WithFields(logrus.Fields{
			"video":       video,
			"perspective": perspective,
			"using":       s.Files[0],
		}).Warn("perspective not found")
	}
	return filepath.Join(s.Path, s.Files[0]), nil
}

// WebPath is the URL path the file for video is served under
func (c *Catalog) WebPath(video, perspective string) (string, error) {
	p, err := c.Find(video, perspective)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(c.Base(), p)
	if err != nil {
		return "", err
	}
	return path.Join(WebRoot, filepath.ToSlash(rel)), nil
}
