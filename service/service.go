// Package service is the annotation tool's HTTP API. Routes live under
// /api and video files under /videos.
package service

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spatialbench/annotator/clip"
	"github.com/spatialbench/annotator/config"
	"github.com/spatialbench/annotator/db"
	"github.com/spatialbench/annotator/qa"
	"github.com/spatialbench/annotator/service/exceptions"
	"github.com/spatialbench/annotator/timecode"
	"github.com/spatialbench/annotator/video"
)

type Server struct {
	Config      *config.Config
	Store       db.Store
	Videos      *video.Catalog
	logger      *logrus.Logger
	errReporter exceptions.Reporter
	sessions    *sessions

	request
}

// NewServer returns a server with no dataset loaded
func NewServer(cfg *config.Config, store db.Store, videos *video.Catalog, logger *logrus.Logger, reporter exceptions.Reporter) *Server {
	if reporter == nil {
		reporter = &exceptions.NoopReporter{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		Config:      cfg,
		Store:       store,
		Videos:      videos,
		logger:      logger,
		errReporter: reporter,
		sessions:    newSessions(),
	}
}

// Handler wraps the server with panic recovery and CORS
func (s *Server) Handler() http.Handler {
	origins := []string{"*"}
	if s.Config != nil && len(s.Config.Server.CORSOrigins) > 0 {
		origins = s.Config.Server.CORSOrigins
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.logger),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(cors(s))
}

// Load opens the dataset stored at key for each of modes
func (s *Server) Load(key string, modes ...Mode) (*qa.Session, error) {
	for _, m := range modes {
		if !m.valid() {
			return nil, errors.Wrapf(qa.ErrInvalid, "mode %q", m)
		}
	}
	ss, err := qa.Open(s.Store, key, s.logger)
	if err != nil {
		return nil, err
	}
	if s.Config != nil {
		ss.AutoSave = s.Config.Session.AutoSave
	}
	for _, m := range modes {
		s.sessions.set(m, ss)
	}
	return ss, nil
}

func (s Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.request = newRequest(rw, r, s.logger)
	defer s.request.finalize()
	s.serve()
}

func (s *Server) serve() bool {
	switch s.chop() {
	case "api":
		return s.api()
	case "videos":
		return s.serveVideo()
	}
	return s.writeerror("bad request path", http.StatusNotFound, nil)
}

func (s *Server) api() bool {
	switch s.chop() {
	case "files":
		return s.files()
	case "constructor":
		return s.constructor()
	case "review":
		return s.review()
	case "quiz":
		return s.quiz()
	case "qa":
		return s.qaClip()
	case "timecode":
		return s.timecode()
	case "videos":
		return s.videos()
	}
	return s.writeerror("bad request path", http.StatusNotFound, nil)
}

func (s *Server) files() bool {
	switch s.chop() {
	case "":
		if s.method() != "GET" {
			return s.badMethod()
		}
		list, err := s.Store.List()
		if err != nil {
			return s.fail("list files", err)
		}
		return s.writebody(FilesResponse{Files: list, Loaded: s.sessions.loaded()})
	case "load":
		if s.method() != "POST" {
			return s.badMethod()
		}
		var req LoadRequest
		if !s.UnmarshalJSON(&req) {
			return s.badBody()
		}
		modes := Modes
		if req.Mode != "" {
			modes = []Mode{req.Mode}
		}
		ss, err := s.Load(req.FileName, modes...)
		if err != nil {
			return s.fail("load file", err)
		}
		resp := LoadResponse{FileName: ss.Key(), Mode: req.Mode}
		ss.View(func(d *qa.Dataset) error {
			st := d.Statistics()
			resp.Videos, resp.QAs = st.Videos, st.QAs
			return nil
		})
		return s.writebody(resp)
	}
	return s.writeerror("bad request path", http.StatusNotFound, nil)
}

// op is one dataset operation; its result is written as the response
type op func(d *qa.Dataset) (interface{}, error)

// view runs fn against the mode's dataset without saving
func (s *Server) view(m Mode, msg string, fn op) bool {
	return s.run(m, msg, false, fn)
}

// do runs fn against the mode's dataset and saves it when auto-save is on
func (s *Server) do(m Mode, msg string, fn op) bool {
	return s.run(m, msg, true, fn)
}

func (s *Server) run(m Mode, msg string, write bool, fn op) bool {
	ss, err := s.sessions.get(m)
	if err != nil {
		return s.fail(msg, err)
	}
	var out interface{}
	call := func(d *qa.Dataset) (err error) {
		out, err = fn(d)
		return err
	}
	if write {
		err = ss.Do(call)
	} else {
		err = ss.View(call)
	}
	if err != nil {
		return s.fail(msg, err)
	}
	return s.writebody(out)
}

// save writes the mode's dataset regardless of auto-save
func (s *Server) save(m Mode) bool {
	if s.method() != "POST" {
		return s.badMethod()
	}
	ss, err := s.sessions.get(m)
	if err != nil {
		return s.fail("save", err)
	}
	if err := ss.Save(); err != nil {
		return s.fail("save", err)
	}
	return s.writebody(Result{Ok: true, Key: ss.Key()})
}

func (s *Server) statistics(m Mode) bool {
	return s.view(m, "statistics", func(d *qa.Dataset) (interface{}, error) {
		return d.Statistics(), nil
	})
}

// code maps err to an HTTP status
func code(err error) int {
	var (
		fe *timecode.FormatError
		ie *clip.InvalidIntervalError
		se *json.SyntaxError
	)
	switch {
	case errors.Is(err, qa.ErrNotFound),
		errors.Is(err, video.ErrNotFound),
		errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, qa.ErrInvalid),
		errors.Is(err, qa.ErrNoCutPoint),
		errors.Is(err, db.ErrBadKey),
		errors.Is(err, ErrNoDataset),
		errors.Is(err, video.ErrBadDir),
		errors.As(err, &fe),
		errors.As(err, &ie),
		errors.As(err, &se):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err as a PlatformError. Server errors are reported and
// their detail kept out of the response.
func (s *Server) fail(msg string, err error) bool {
	c := code(err)
	if c >= 500 {
		s.errReporter.ReportException(err, map[string]string{"rid": s.rid, "path": s.r.URL.Path})
		return s.writeerror(msg+" failed", c, err)
	}
	return s.writeerror(fmt.Sprintf("%s: %v", msg, err), c, err)
}

func (s *Server) badMethod() bool {
	return s.writeerror("method not allowed", http.StatusMethodNotAllowed, nil)
}

func (s *Server) badBody() bool {
	return s.writeerror("bad request body", http.StatusBadRequest, s.err)
}

// PlatformError implements a well-known error response for http clients
// encountering an error when using the service.
type PlatformError struct {
	Ok     bool   `json:"ok"`
	Status int    `json:"status"`
	Rid    string `json:"rid"`
	Msg    string `json:"msg,omitempty"`
}

// String returns the json-formatted platform response
func (p PlatformError) String() string {
	data, _ := json.Marshal(p)
	return string(data)
}
