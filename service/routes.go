package service

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/spatialbench/annotator/qa"
	"github.com/spatialbench/annotator/video"
)

// constructor serves /api/constructor: browsing QAs by video and editing
// them.
func (s *Server) constructor() bool {
	const m = Constructor
	switch s.chop() {
	case "videos":
		return s.view(m, "list videos", func(d *qa.Dataset) (interface{}, error) {
			return d.Videos(), nil
		})
	case "video":
		name := s.chop()
		switch s.chop() {
		case "qas":
			return s.view(m, "list qas", func(d *qa.Dataset) (interface{}, error) {
				return d.VideoQAs(name)
			})
		case "qa":
			if s.method() != "POST" {
				return s.badMethod()
			}
			var p qa.Patch
			if !s.UnmarshalJSON(&p) {
				return s.badBody()
			}
			return s.do(m, "create qa", func(d *qa.Dataset) (interface{}, error) {
				return d.Create(name, p)
			})
		case "info":
			return s.view(m, "video info", func(d *qa.Dataset) (interface{}, error) {
				return s.videoInfo(d, name)
			})
		}
	case "qa":
		id := s.chop()
		switch s.chop() {
		case "":
			return s.editQA(m, id)
		case "duplicate":
			if s.method() != "POST" {
				return s.badMethod()
			}
			return s.do(m, "duplicate qa", func(d *qa.Dataset) (interface{}, error) {
				return d.Duplicate(id)
			})
		}
	case "statistics":
		return s.statistics(m)
	case "save":
		return s.save(m)
	case "auto-save":
		return s.autoSave(m)
	}
	return s.writeerror("bad request path", http.StatusNotFound, nil)
}

// review serves /api/review: checking candidate QAs segment by segment
func (s *Server) review() bool {
	const m = Review
	switch s.chop() {
	case "segments":
		return s.view(m, "list segments", func(d *qa.Dataset) (interface{}, error) {
			return d.Segments(), nil
		})
	case "segment":
		seg := s.chop()
		switch s.chop() {
		case "qas":
			return s.view(m, "list qas", func(d *qa.Dataset) (interface{}, error) {
				return d.SegmentQAs(seg)
			})
		case "status":
			if s.method() != "POST" {
				return s.badMethod()
			}
			var req StateRequest
			if !s.UnmarshalJSON(&req) {
				return s.badBody()
			}
			return s.do(m, "set segment state", func(d *qa.Dataset) (interface{}, error) {
				return d.SetSegmentState(seg, req.State)
			})
		case "qa":
			if s.method() != "POST" {
				return s.badMethod()
			}
			var p qa.Patch
			if !s.UnmarshalJSON(&p) {
				return s.badBody()
			}
			return s.do(m, "add qa", func(d *qa.Dataset) (interface{}, error) {
				return d.AddToSegment(seg, p)
			})
		case "video":
			return s.view(m, "segment video", func(d *qa.Dataset) (interface{}, error) {
				return s.segmentVideo(d, seg)
			})
		}
	case "qa":
		id := s.chop()
		if s.chop() == "" {
			return s.editQA(m, id)
		}
	case "statistics":
		return s.statistics(m)
	case "save":
		return s.save(m)
	case "auto-save":
		return s.autoSave(m)
	}
	return s.writeerror("bad request path", http.StatusNotFound, nil)
}

// quiz serves /api/quiz: answering QAs and grading their quality
func (s *Server) quiz() bool {
	const m = Quiz
	switch s.chop() {
	case "qas":
		return s.view(m, "list qas", func(d *qa.Dataset) (interface{}, error) {
			return d.All(), nil
		})
	case "qa":
		id := s.chop()
		action := s.chop()
		if action == "" {
			if s.method() != "GET" {
				return s.badMethod()
			}
			return s.view(m, "get qa", func(d *qa.Dataset) (interface{}, error) {
				return d.Get(id)
			})
		}
		if s.method() != "POST" {
			return s.badMethod()
		}
		switch action {
		case "answer":
			var req AnswerRequest
			if !s.UnmarshalJSON(&req) {
				return s.badBody()
			}
			return s.do(m, "answer", func(d *qa.Dataset) (interface{}, error) {
				return d.SetAnswer(id, req.Answer)
			})
		case "toggle-usable":
			var req ToggleRequest
			if len(s.Body()) > 0 && !s.UnmarshalJSON(&req) {
				return s.badBody()
			}
			return s.do(m, "toggle usable", func(d *qa.Dataset) (interface{}, error) {
				return d.ToggleUsable(id, req.Reason)
			})
		case "difficulty":
			var req DifficultyRequest
			if !s.UnmarshalJSON(&req) {
				return s.badBody()
			}
			return s.do(m, "set difficulty", func(d *qa.Dataset) (interface{}, error) {
				return d.SetDifficulty(id, req.Difficulty)
			})
		}
	case "statistics":
		return s.statistics(m)
	case "save":
		return s.save(m)
	case "auto-save":
		return s.autoSave(m)
	}
	return s.writeerror("bad request path", http.StatusNotFound, nil)
}

// editQA serves GET, PUT and DELETE on a single QA
func (s *Server) editQA(m Mode, id string) bool {
	switch s.method() {
	case "GET":
		return s.view(m, "get qa", func(d *qa.Dataset) (interface{}, error) {
			return d.Get(id)
		})
	case "PUT":
		var p qa.Patch
		if !s.UnmarshalJSON(&p) {
			return s.badBody()
		}
		return s.do(m, "update qa", func(d *qa.Dataset) (interface{}, error) {
			return d.Update(id, p)
		})
	case "DELETE":
		return s.do(m, "delete qa", func(d *qa.Dataset) (interface{}, error) {
			return Result{Ok: true, ID: id}, d.Delete(id)
		})
	}
	return s.badMethod()
}

func (s *Server) videoInfo(d *qa.Dataset, name string) (interface{}, error) {
	qas, err := d.VideoQAs(name)
	if err != nil {
		return nil, err
	}
	info := VideoInfo{Name: name, QACount: len(qas), Perspectives: []string{}}
	if len(qas) > 0 {
		info.Perspective = qas[0].Perspective()
	}
	s.locate(&info)
	return info, nil
}

func (s *Server) segmentVideo(d *qa.Dataset, id string) (interface{}, error) {
	seg, err := d.Segment(id)
	if err != nil {
		return nil, err
	}
	if seg.VideoName == "" {
		return nil, errors.Wrapf(video.ErrNotFound, "segment %q has no video", id)
	}
	qas, err := d.SegmentQAs(id)
	if err != nil {
		return nil, err
	}
	info := VideoInfo{Name: seg.VideoName, Segment: id, QACount: len(qas), Perspectives: []string{}}
	if len(qas) > 0 {
		info.Perspective = qas[0].Perspective()
	}
	s.locate(&info)
	return info, nil
}

// locate fills in the perspectives and URL the catalog knows for info
func (s *Server) locate(info *VideoInfo) {
	if s.Videos == nil {
		return
	}
	if p, err := s.Videos.Perspectives(info.Name); err == nil {
		info.Perspectives = p
		info.URL, _ = s.Videos.WebPath(info.Name, info.Perspective)
	}
}

// autoSave reports a mode's auto-save setting on GET and changes it on
// POST. A POST without "enabled" turns it on.
func (s *Server) autoSave(m Mode) bool {
	ss, err := s.sessions.get(m)
	if err != nil {
		return s.fail("auto-save", err)
	}
	switch s.method() {
	case "GET":
	case "POST":
		var req AutoSaveRequest
		if len(s.Body()) > 0 && !s.UnmarshalJSON(&req) {
			return s.badBody()
		}
		on := true
		if req.Enabled != nil {
			on = *req.Enabled
		}
		ss.SetAutoSave(on)
	default:
		return s.badMethod()
	}
	return s.writebody(AutoSaveResponse{Key: ss.Key(), Enabled: ss.AutoSaving()})
}
