package service

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/spatialbench/annotator/qa"
)

// ErrNoDataset is returned by mode routes before a file is loaded
var ErrNoDataset = errors.New("no dataset loaded")

// Mode is one of the three annotation workflows. Each mode has its own
// loaded dataset.
type Mode string

const (
	Constructor = Mode("constructor")
	Review      = Mode("review")
	Quiz        = Mode("quiz")
)

// Modes lists every mode in lookup order
var Modes = []Mode{Constructor, Review, Quiz}

func (m Mode) valid() bool {
	return m == Constructor || m == Review || m == Quiz
}

type sessions struct {
	mu sync.RWMutex
	m  map[Mode]*qa.Session
}

func newSessions() *sessions {
	return &sessions{m: map[Mode]*qa.Session{}}
}

func (s *sessions) get(m Mode) (*qa.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ss, ok := s.m[m]
	if !ok {
		return nil, errors.Wrapf(ErrNoDataset, "mode %s", m)
	}
	return ss, nil
}

func (s *sessions) set(m Mode, ss *qa.Session) {
	s.mu.Lock()
	s.m[m] = ss
	s.mu.Unlock()
}

// loaded maps each mode to the key of its dataset
func (s *sessions) loaded() map[Mode]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Mode]string, len(s.m))
	for m, ss := range s.m {
		out[m] = ss.Key()
	}
	return out
}

// all returns the loaded sessions in Modes order
func (s *sessions) all() []*qa.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*qa.Session
	for _, m := range Modes {
		if ss, ok := s.m[m]; ok {
			out = append(out, ss)
		}
	}
	return out
}
