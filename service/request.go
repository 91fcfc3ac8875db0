package service

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

const defaultMaxBodyLen = 1024 * 1024

// request is always scoped to a single http request handled by the server
type request struct {
	file, path string

	ctx context.Context
	w   http.ResponseWriter
	r   *http.Request
	log *logrus.Entry

	body []byte

	start       time.Time
	rid         string
	status      int
	read, wrote int
	ip, port    string
	err, logerr error
}

// newRequest initializes request scoped structures, context and counters
func newRequest(w http.ResponseWriter, rq *http.Request, logger logrus.FieldLogger) request {
	r := request{
		path:   rq.URL.Path,
		ctx:    rq.Context(),
		r:      rq,
		w:      w,
		start:  time.Now(),
		status: http.StatusOK,
	}
	if id, err := uuid.NewV4(); err == nil {
		r.rid = id.String()
	}
	r.ip = r.r.Header.Get("X-Forwarded-For")
	r.port = r.r.Header.Get("X-Forwarded-Port")
	if r.ip == "" {
		r.ip, r.port, _ = net.SplitHostPort(r.r.RemoteAddr)
	}
	r.log = logger.WithFields(logrus.Fields{
		"rid":    r.rid,
		"method": r.r.Method,
		"path":   r.r.URL.Path,
	})
	r.log.WithFields(logrus.Fields{
		"ip":   r.ip,
		"port": r.port,
		"ref":  r.r.Referer(),
		"ua":   r.r.UserAgent(),
	}).Debug("request")
	return r
}

func (r *request) finalize() {
	if r.logerr == nil {
		r.logerr = r.err
	}
	e := r.log.WithFields(logrus.Fields{
		"code": r.status,
		"rx":   r.read,
		"tx":   r.wrote,
		"dur":  time.Since(r.start).String(),
	})
	if r.logerr != nil {
		e.WithError(r.logerr).Warn("done")
		return
	}
	e.Info("done")
}

func (s *request) ok() bool {
	return s.err == nil
}

// Body reads the request body at most once and
// returns it.
func (s *request) Body() []byte {
	if !s.ok() {
		return nil
	}
	if s.body != nil {
		return s.body
	}
	s.body, s.err = ioutil.ReadAll(io.LimitReader(s.r.Body, defaultMaxBodyLen))
	s.read = len(s.body)
	return s.body
}

func (s *request) writeerror(msg string, code int, err error) bool {
	s.logerr = err
	s.status = code
	s.w.Header().Set("Content-Type", "application/json")
	s.w.WriteHeader(code)
	data, _ := json.Marshal(PlatformError{
		Ok:     false,
		Status: code,
		Rid:    s.rid,
		Msg:    msg,
	})
	n, _ := s.w.Write(append(data, '\n'))
	s.wrote += n
	return false
}

func (s *request) writebody(data interface{}, mimeType ...string) bool {
	if len(mimeType) != 0 {
		s.w.Header().Set("Content-Type", mimeType[0])
	}
	switch t := data.(type) {
	case io.WriterTo:
		n, err := t.WriteTo(s.w)
		s.wrote, s.err = int(n), err
	case []byte:
		s.wrote, s.err = s.w.Write(t)
	case string:
		s.wrote, s.err = s.w.Write([]byte(t))
	case interface{}:
		data, err := json.Marshal(t)
		if err != nil {
			return s.writeerror("encoding response", http.StatusInternalServerError, err)
		}
		s.w.Header().Set("Content-Type", "application/json")
		s.wrote, s.err = s.w.Write(data)
	}
	return s.ok()
}

func (s *request) UnmarshalJSON(body interface{}) (ok bool) {
	data := s.Body()
	if !s.ok() {
		return false
	}
	if s.err = json.Unmarshal(data, body); s.err != nil {
		return false
	}
	return s.ok()
}

func (s *request) method() string {
	return s.r.Method
}

func (s *request) query(key string) string {
	return s.r.URL.Query().Get(key)
}

func (s *request) chop() string {
	s.file, s.path = chop(s.path)
	return s.file
}

func chop(p string) (file, next string) {
	p = path.Clean(p)[1:]
	if n := strings.Index(p, "/"); n >= 0 {
		return p[:n], p[n:]
	}
	return p, "/"
}
