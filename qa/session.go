package qa

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spatialbench/annotator/db"
)

// Session binds a Dataset to a document in a db.Store. All access goes
// through Do and View, which serialize callers.
type Session struct {
	mu    sync.Mutex
	store db.Store
	key   string
	data  *Dataset

	// AutoSave writes the document after every successful Do
	AutoSave bool
	log      logrus.FieldLogger
}

// Open loads key from store. A missing document opens an empty dataset
// that is created on the first save.
func Open(store db.Store, key string, log logrus.FieldLogger) (*Session, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var raw json.RawMessage
	err := store.Get(key, &raw)
	if errors.Is(err, db.ErrNotFound) {
		log.WithField("key", key).Info("starting empty dataset")
		return &Session{store: store, key: key, data: NewDataset(), AutoSave: true, log: log}, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "loading %q", key)
	}
	d, err := Decode(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", key)
	}
	log.WithFields(logrus.Fields{
		"key":    key,
		"videos": len(d.videos),
	}).Info("dataset loaded")
	return &Session{store: store, key: key, data: d, AutoSave: true, log: log}, nil
}

// Key is the document key the session reads and writes
func (s *Session) Key() string {
	return s.key
}

// Save writes the dataset back to the store in the current format
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Session) save() error {
	if err := s.store.Put(s.key, s.data.Encode()); err != nil {
		return errors.Wrapf(err, "saving %q", s.key)
	}
	s.log.WithField("key", s.key).Debug("dataset saved")
	return nil
}

// Do runs fn with exclusive access to the dataset. When fn succeeds and
// AutoSave is set, the dataset is saved before Do returns.
func (s *Session) Do(fn func(*Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.data); err != nil {
		return err
	}
	if !s.AutoSave {
		return nil
	}
	return s.save()
}

// View runs fn with exclusive access to the dataset and never saves
func (s *Session) View(fn func(*Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// SetAutoSave turns saving after every Do on or off
func (s *Session) SetAutoSave(on bool) {
	s.mu.Lock()
	s.AutoSave = on
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"key": s.key, "autosave": on}).Info("autosave changed")
}

// AutoSaving reports whether Do saves
func (s *Session) AutoSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.AutoSave
}
