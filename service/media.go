package service

import (
	"net/http"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spatialbench/annotator/qa"
	"github.com/spatialbench/annotator/timecode"
	"github.com/spatialbench/annotator/video"
)

// qaClip serves /api/qa/<id>/clip?part=&mode=. Without a mode the QA is
// looked up in every loaded dataset.
func (s *Server) qaClip() bool {
	id := s.chop()
	if s.chop() != "clip" {
		return s.writeerror("bad request path", http.StatusNotFound, nil)
	}
	if s.method() != "GET" {
		return s.badMethod()
	}
	part := qa.Part(s.query("part"))
	if part == "" {
		part = qa.Full
	}

	found, err := s.findQA(Mode(s.query("mode")), id)
	if err != nil {
		return s.fail("clip", err)
	}
	iv, err := found.Clip(part)
	if err != nil {
		return s.fail("clip", err)
	}
	resp := ClipResponse{
		ID:        id,
		Part:      part,
		Start:     iv.Start,
		End:       iv.End,
		StartTime: timecode.Format(iv.Start),
		EndTime:   timecode.Format(iv.End),
		Duration:  iv.Duration().Seconds(),
	}
	if s.Videos != nil {
		resp.URL, _ = s.Videos.WebPath(found.VideoName, found.Perspective())
	}
	return s.writebody(resp)
}

func (s *Server) findQA(m Mode, id string) (*qa.QA, error) {
	var list []*qa.Session
	if m != "" {
		ss, err := s.sessions.get(m)
		if err != nil {
			return nil, err
		}
		list = append(list, ss)
	} else {
		list = s.sessions.all()
	}
	if len(list) == 0 {
		return nil, ErrNoDataset
	}
	for _, ss := range list {
		var found *qa.QA
		err := ss.View(func(d *qa.Dataset) (err error) {
			found, err = d.Get(id)
			return err
		})
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, qa.ErrNotFound) {
			return nil, err
		}
	}
	return nil, errors.Wrapf(qa.ErrNotFound, "qa %q", id)
}

// timecode serves /api/timecode?t=MM:SS.ss or ?s=seconds
func (s *Server) timecode() bool {
	if s.method() != "GET" {
		return s.badMethod()
	}
	if text := s.query("t"); text != "" || s.query("s") == "" {
		sec, err := timecode.Parse(text)
		if err != nil {
			return s.fail("timecode", err)
		}
		return s.writebody(TimecodeResponse{Text: text, Seconds: sec, Canonical: timecode.Format(sec)})
	}
	raw := s.query("s")
	sec, err := strconv.ParseFloat(raw, 64)
	if err == nil {
		err = timecode.Check(sec)
	}
	if err != nil {
		return s.writeerror("timecode: seconds must be a number in [0, 1e12]", http.StatusBadRequest, err)
	}
	return s.writebody(TimecodeResponse{Text: raw, Seconds: sec, Canonical: timecode.Format(sec)})
}

// videos serves /api/videos, /api/videos/<name>/perspectives and
// /api/videos/directory
func (s *Server) videos() bool {
	name, rest := s.chop(), s.chop()
	if name == "directory" && rest == "" {
		return s.videoDir()
	}
	if s.method() != "GET" {
		return s.badMethod()
	}
	if s.Videos == nil {
		return s.writebody([]video.Source{})
	}
	if name == "" {
		return s.writebody(s.Videos.List())
	}
	if rest != "perspectives" {
		return s.writeerror("bad request path", http.StatusNotFound, nil)
	}
	p, err := s.Videos.Perspectives(name)
	if err != nil {
		return s.fail("perspectives", err)
	}
	return s.writebody(p)
}

// videoDir reports the catalog directory on GET and moves it on POST
func (s *Server) videoDir() bool {
	if s.Videos == nil {
		return s.writeerror("no video directory", http.StatusNotFound, nil)
	}
	switch s.method() {
	case "GET":
		return s.writebody(s.dirInfo())
	case "POST":
		var req VideoDirRequest
		if !s.UnmarshalJSON(&req) {
			return s.badBody()
		}
		if req.VideoDir == "" {
			return s.writeerror("video_dir is required", http.StatusBadRequest, nil)
		}
		if err := s.Videos.UseDir(req.VideoDir); err != nil {
			return s.fail("set video dir", err)
		}
		return s.writebody(s.dirInfo())
	}
	return s.badMethod()
}

func (s *Server) dirInfo() VideoDirResponse {
	base := s.Videos.Base()
	fi, err := os.Stat(base)
	info := VideoDirResponse{VideoDir: base, Exists: err == nil && fi.IsDir(), Videos: []string{}}
	for _, src := range s.Videos.List() {
		info.Videos = append(info.Videos, src.Name)
	}
	info.VideoCount = len(info.Videos)
	return info
}

// serveVideo serves the files under the catalog's base directory
func (s *Server) serveVideo() bool {
	if s.Videos == nil {
		return s.writeerror("no video directory", http.StatusNotFound, nil)
	}
	fs := http.StripPrefix("/videos", http.FileServer(http.Dir(s.Videos.Base())))
	fs.ServeHTTP(s.w, s.r)
	return true
}
