// Package db stores JSON documents by key. The annotation service keeps
// one document per dataset file.
package db

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

var stores = map[string]Factory{}

var (
	ErrNotFound   = errors.New("document not found")
	ErrBadKey     = errors.New("bad document key")
	ErrRegistered = errors.New("store kind is already registered")
	ErrKind       = errors.New("unknown store kind")
)

// Entry describes a stored document
type Entry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path,omitempty"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store reads and writes JSON documents by key
type Store interface {
	// Get unmarshals the document at key into dst
	Get(key string, dst interface{}) error
	// Put marshals val and stores it at key
	Put(key string, val interface{}) error
	// List returns the stored documents, newest first
	List() ([]Entry, error)
}

// Options selects and configures a Store
type Options struct {
	// Kind is "file" or "redis"
	Kind  string
	Dir   string
	Redis RedisConfig
}

// Factory creates the Store for a kind
type Factory func(opt *Options) (Store, error)

// Register makes a store kind available to New
func Register(kind string, fn Factory) error {
	if _, ok := stores[kind]; ok {
		return ErrRegistered
	}
	stores[kind] = fn
	return nil
}

// MustRegister is Register for package init, panicking on a duplicate kind
func MustRegister(kind string, fn Factory) {
	if err := Register(kind, fn); err != nil {
		panic(errors.Wrapf(err, "%q", kind))
	}
}

// Kinds lists the registered store kinds
func Kinds() []string {
	kinds := make([]string, 0, len(stores))
	for k := range stores {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New returns the Store described by opt. An empty kind means "file".
func New(opt *Options) (Store, error) {
	if opt == nil {
		opt = &Options{}
	}
	kind := opt.Kind
	if kind == "" {
		kind = "file"
	}
	fn, ok := stores[kind]
	if !ok {
		return nil, errors.Wrapf(ErrKind, "%q", kind)
	}
	return fn(opt)
}
