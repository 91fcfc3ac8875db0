package qa

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// FormatVersion is written into every document Encode produces
const FormatVersion = 2

// Document is the persisted form of a Dataset
type Document struct {
	Version  int                      `json:"version"`
	Videos   map[string][]*QA         `json:"videos"`
	Segments map[string]*SegmentState `json:"segments,omitempty"`
}

// Encode snapshots d into a Document
func (d *Dataset) Encode() *Document {
	doc := &Document{
		Version:  FormatVersion,
		Videos:   make(map[string][]*QA, len(d.videos)),
		Segments: make(map[string]*SegmentState, len(d.segments)),
	}
	for v := range d.videos {
		doc.Videos[v], _ = d.VideoQAs(v)
	}
	for id, s := range d.segments {
		doc.Segments[id] = s.clone()
	}
	return doc
}

// segment-keyed candidate layout; the review state and any other
// segment-level keys land in the embedded SegmentState
type candidateSegment struct {
	QAs []*QA `json:"qas"`
	SegmentState
}

func (c *candidateSegment) UnmarshalJSON(p []byte) error {
	var head struct {
		QAs []*QA `json:"qas"`
	}
	if err := json.Unmarshal(p, &head); err != nil {
		return err
	}
	c.QAs = head.QAs
	return json.Unmarshal(p, &c.SegmentState)
}

// Decode reads a dataset from any of the layouts the annotation tool has
// written over time:
//
//	{"version": 2, "videos": {...}, "segments": {...}}  current
//	[{qa}, ...]                                          flat quiz list
//	{"<video>": [{qa}, ...]}                             constructor map
//	{"<segment>": {"video_name": ..., "qas": [...]}}     review candidates
func Decode(p []byte) (*Dataset, error) {
	d := NewDataset()
	p = bytes.TrimSpace(p)
	if len(p) == 0 {
		return d, nil
	}

	switch p[0] {
	case '[':
		var list []*QA
		if err := json.Unmarshal(p, &list); err != nil {
			return nil, errors.Wrap(err, "decoding qa list")
		}
		return d, d.addAll(list, VersionOriginal)
	case '{':
	default:
		return nil, errors.Wrap(ErrInvalid, "document is neither a list nor an object")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(p, &top); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	if _, ok := top["videos"]; ok {
		if _, ok := top["version"]; ok {
			return decodeDocument(p)
		}
	}

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		raw := bytes.TrimSpace(top[k])
		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '[':
			var list []*QA
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, errors.Wrapf(err, "decoding video %q", k)
			}
			for _, q := range list {
				if q.VideoName == "" {
					q.VideoName = k
				}
			}
			if _, ok := d.videos[k]; !ok {
				d.videos[k] = []*QA{}
			}
			if err := d.addAll(list, VersionOriginal); err != nil {
				return nil, err
			}
		case '{':
			var seg candidateSegment
			if err := json.Unmarshal(raw, &seg); err != nil {
				return nil, errors.Wrapf(err, "decoding segment %q", k)
			}
			for _, q := range seg.QAs {
				if q.VideoName == "" {
					q.VideoName = seg.VideoName
				}
				q.SegmentID = k
				if a, ok := q.Extra["answer"]; ok && q.GroundTruth == "" {
					json.Unmarshal(a, &q.GroundTruth)
					delete(q.Extra, "answer")
				}
			}
			if err := d.addAll(seg.QAs, VersionOriginal); err != nil {
				return nil, err
			}
			if seg.State != "" || seg.LastModify != "" || seg.VideoName != "" || len(seg.Extra) > 0 {
				st := seg.SegmentState
				if st.State == "" {
					st.State = defaultReview
				}
				d.segments[k] = &st
			}
		default:
			return nil, errors.Wrapf(ErrInvalid, "key %q holds neither qas nor a segment", k)
		}
	}
	return d, nil
}

func decodeDocument(p []byte) (*Dataset, error) {
	var doc Document
	if err := json.Unmarshal(p, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	if doc.Version > FormatVersion {
		return nil, errors.Wrapf(ErrInvalid, "document version %d is newer than %d", doc.Version, FormatVersion)
	}
	d := NewDataset()
	names := make([]string, 0, len(doc.Videos))
	for v := range doc.Videos {
		names = append(names, v)
	}
	sort.Strings(names)
	for _, v := range names {
		d.videos[v] = []*QA{}
		for _, q := range doc.Videos[v] {
			q.VideoName = v
		}
		if err := d.addAll(doc.Videos[v], ""); err != nil {
			return nil, err
		}
	}
	for id, s := range doc.Segments {
		if s != nil {
			d.segments[id] = s
		}
	}
	return d, nil
}

func (d *Dataset) addAll(list []*QA, version string) error {
	for _, q := range list {
		if q == nil {
			continue
		}
		if q.Version == "" {
			q.Version = version
		}
		if err := d.Add(q); err != nil {
			return err
		}
	}
	return nil
}
