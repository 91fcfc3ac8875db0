package video

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch invalidates the catalog whenever a file under the base directory
// or one of its video directories is created, removed, renamed or
// written. It returns once the watch is established and keeps running
// until ctx is done.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	if err := c.watchTree(w, c.Base()); err != nil {
		w.Close()
		return err
	}
	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	go c.watchLoop(ctx, w)
	return nil
}

// watchTree adds base and its video directories to w
func (c *Catalog) watchTree(w *fsnotify.Watcher, base string) error {
	if err := w.Add(base); err != nil {
		return errors.Wrapf(err, "watching %s", base)
	}
	infos, err := ioutil.ReadDir(base)
	if err != nil {
		return err
	}
	for _, fi := range infos {
		if fi.IsDir() {
			c.watchDir(w, filepath.Join(base, fi.Name()))
		}
	}
	return nil
}

// rewatch moves a running watch to base
func (c *Catalog) rewatch(w *fsnotify.Watcher, base string) {
	for _, p := range w.WatchList() {
		w.Remove(p)
	}
	if err := c.watchTree(w, base); err != nil {
		c.log.WithError(err).WithField("dir", base).Error("cannot watch")
	}
}

func (c *Catalog) watchDir(w *fsnotify.Watcher, dir string) {
	if err := w.Add(dir); err != nil {
		c.log.WithError(err).WithField("dir", dir).Error("cannot watch")
	}
}

func (c *Catalog) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					c.watchDir(w, ev.Name)
				}
			}
			c.log.WithField("file", ev.Name).Debug("video dir changed")
			c.Invalidate()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			c.log.WithError(err).Error("video watcher")
		case <-ctx.Done():
			c.mu.Lock()
			if c.watcher == w {
				c.watcher = nil
			}
			c.mu.Unlock()
			return
		}
	}
}
