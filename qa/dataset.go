package qa

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cbsinteractive/pkg/timecode"
	"github.com/pkg/errors"
)

const (
	// VersionOriginal marks QAs imported as generated
	VersionOriginal = "v1"
	// VersionEdited marks QAs created or duplicated by an annotator
	VersionEdited = "v2"

	defaultTime   = "00:00.00"
	modifyLayout  = "2006-01-02 15:04:05"
	defaultReview = "待审阅"
)

// Video summarizes one video's QAs
type Video struct {
	Name    string `json:"video_name"`
	QACount int    `json:"qa_count"`
}

// Segment is a labeled span of source video grouping QAs for review
type Segment struct {
	ID         string `json:"id"`
	VideoName  string `json:"video_name,omitempty"`
	State      string `json:"state"`
	LastModify string `json:"last_modify,omitempty"`
	QACount    int    `json:"qa_count"`
}

// SegmentState is the persisted review state of a segment. Extra keeps
// segment-level keys of the candidate layout, such as total_qas.
type SegmentState struct {
	VideoName  string `json:"video_name,omitempty"`
	State      string `json:"state"`
	LastModify string `json:"last_modify,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type plainSegmentState SegmentState

var knownSegment = map[string]bool{
	"video_name": true, "state": true, "last_modify": true, "qas": true,
}

func (s *SegmentState) clone() *SegmentState {
	c := *s
	if s.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

func (s *SegmentState) UnmarshalJSON(p []byte) error {
	if err := json.Unmarshal(p, (*plainSegmentState)(s)); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(p, &all); err != nil {
		return err
	}
	s.Extra = nil
	for k, v := range all {
		if knownSegment[k] {
			continue
		}
		if s.Extra == nil {
			s.Extra = map[string]json.RawMessage{}
		}
		s.Extra[k] = v
	}
	return nil
}

func (s SegmentState) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(plainSegmentState(s))
	if err != nil || len(s.Extra) == 0 {
		return b, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// Statistics summarizes a dataset
type Statistics struct {
	Videos        int            `json:"total_videos"`
	Segments      int            `json:"total_segments"`
	QAs           int            `json:"total_qas"`
	V1            int            `json:"v1_qas"`
	V2            int            `json:"v2_qas"`
	Answered      int            `json:"answered"`
	Unanswered    int            `json:"unanswered"`
	Usable        int            `json:"usable"`
	Unusable      int            `json:"unusable"`
	QuestionTypes map[string]int `json:"question_types"`
	ClipSeconds   float64        `json:"clip_seconds"`
}

// Dataset is the in-memory set of QAs grouped by video, plus the review
// state of each segment. It is not safe for concurrent use; see Session.
type Dataset struct {
	videos   map[string][]*QA
	segments map[string]*SegmentState

	// Now stamps segment modifications
	Now func() time.Time
}

// NewDataset returns an empty dataset
func NewDataset() *Dataset {
	return &Dataset{
		videos:   map[string][]*QA{},
		segments: map[string]*SegmentState{},
		Now:      time.Now,
	}
}

func notFound(kind, id string) error {
	return errors.Wrapf(ErrNotFound, "%s %q", kind, id)
}

func (d *Dataset) lookup(id string) (video string, i int, ok bool) {
	for v, qas := range d.videos {
		for i, q := range qas {
			if q.ID == id {
				return v, i, true
			}
		}
	}
	return "", -1, false
}

func (d *Dataset) touch(segment string) {
	if segment == "" {
		return
	}
	s := d.segments[segment]
	if s == nil {
		s = &SegmentState{State: defaultReview}
		d.segments[segment] = s
	}
	now := d.Now()
	s.LastModify = now.Format(modifyLayout)
	if _, ok := s.Extra["total_qas"]; ok {
		n := 0
		for _, qas := range d.videos {
			for _, q := range qas {
				if q.SegmentID == segment {
					n++
				}
			}
		}
		s.Extra["total_qas"] = json.RawMessage(strconv.Itoa(n))
	}
	if _, ok := s.Extra["sync_time"]; ok {
		s.Extra["sync_time"], _ = json.Marshal(now.UTC().Format(time.RFC3339))
	}
}

func (d *Dataset) nextID(video string) string {
	max := -1
	for _, q := range d.videos[video] {
		if n := ordinal(q.ID); n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s_qa_%d", video, max+1)
}

// Add inserts q as is, keyed by its video. It is used by decoders and
// fails if the id is already taken.
func (d *Dataset) Add(q *QA) error {
	if q.ID == "" {
		q.ID = d.nextID(q.VideoName)
	}
	if _, _, ok := d.lookup(q.ID); ok {
		return errors.Wrapf(ErrInvalid, "duplicate qa_id %q", q.ID)
	}
	d.videos[q.VideoName] = append(d.videos[q.VideoName], q)
	return nil
}

// Videos lists the videos by name
func (d *Dataset) Videos() []Video {
	list := make([]Video, 0, len(d.videos))
	for name, qas := range d.videos {
		list = append(list, Video{Name: name, QACount: len(qas)})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// VideoQAs returns copies of a video's QAs ordered by id
func (d *Dataset) VideoQAs(video string) ([]*QA, error) {
	qas, ok := d.videos[video]
	if !ok {
		return nil, notFound("video", video)
	}
	sortQAs(qas)
	out := make([]*QA, len(qas))
	for i, q := range qas {
		out[i] = q.Clone()
	}
	return out, nil
}

// All returns copies of every QA, grouped by video name then id
func (d *Dataset) All() []*QA {
	var out []*QA
	for _, v := range d.Videos() {
		qas, _ := d.VideoQAs(v.Name)
		out = append(out, qas...)
	}
	return out
}

// Get returns a copy of the QA with the given id
func (d *Dataset) Get(id string) (*QA, error) {
	v, i, ok := d.lookup(id)
	if !ok {
		return nil, notFound("qa", id)
	}
	return d.videos[v][i].Clone(), nil
}

// Create adds a new QA to video. Times default to those of the video's
// first QA. New QAs start unusable until an annotator marks them.
func (d *Dataset) Create(video string, p Patch) (*QA, error) {
	if video == "" {
		return nil, errors.Wrap(ErrInvalid, "empty video name")
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	start, end := defaultTime, defaultTime
	if qas := d.videos[video]; len(qas) > 0 {
		sortQAs(qas)
		start, end = qas[0].StartTime, qas[0].EndTime
	}
	unusable := false
	q := &QA{
		ID:        d.nextID(video),
		VideoName: video,
		Options:   []string{},
		StartTime: start,
		EndTime:   end,
		Usable:    &unusable,
		Version:   VersionEdited,
	}
	p.apply(q)
	d.videos[video] = append(d.videos[video], q)
	d.touch(q.SegmentID)
	return q.Clone(), nil
}

// Update applies p to the QA with the given id
func (d *Dataset) Update(id string, p Patch) (*QA, error) {
	v, i, ok := d.lookup(id)
	if !ok {
		return nil, notFound("qa", id)
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	q := d.videos[v][i]
	p.apply(q)
	d.touch(q.SegmentID)
	return q.Clone(), nil
}

// Delete removes the QA with the given id. The video entry is kept even
// when it becomes empty.
func (d *Dataset) Delete(id string) error {
	v, i, ok := d.lookup(id)
	if !ok {
		return notFound("qa", id)
	}
	seg := d.videos[v][i].SegmentID
	d.videos[v] = append(d.videos[v][:i], d.videos[v][i+1:]...)
	d.touch(seg)
	return nil
}

// Duplicate copies the QA under a fresh id in the same video
func (d *Dataset) Duplicate(id string) (*QA, error) {
	v, i, ok := d.lookup(id)
	if !ok {
		return nil, notFound("qa", id)
	}
	q := d.videos[v][i].Clone()
	q.ID = d.nextID(v)
	q.Version = VersionEdited
	d.videos[v] = append(d.videos[v], q)
	d.touch(q.SegmentID)
	return q.Clone(), nil
}

// SetAnswer records the annotator's answer; nil resets it
func (d *Dataset) SetAnswer(id string, answer *string) (*QA, error) {
	v, i, ok := d.lookup(id)
	if !ok {
		return nil, notFound("qa", id)
	}
	q := d.videos[v][i]
	if answer == nil {
		q.HumanAnswer = nil
	} else {
		s := *answer
		q.HumanAnswer = &s
	}
	return q.Clone(), nil
}

// ToggleUsable flips the usable flag. Marking unusable records reason,
// marking usable clears it.
func (d *Dataset) ToggleUsable(id, reason string) (*QA, error) {
	v, i, ok := d.lookup(id)
	if !ok {
		return nil, notFound("qa", id)
	}
	q := d.videos[v][i]
	usable := !q.IsUsable()
	q.Usable = &usable
	if usable {
		q.UselessReason = ""
	} else {
		q.UselessReason = reason
	}
	d.touch(q.SegmentID)
	return q.Clone(), nil
}

// SetDifficulty grades the QA
func (d *Dataset) SetDifficulty(id string, level Difficulty) (*QA, error) {
	if !level.Valid() {
		return nil, errors.Wrapf(ErrInvalid, "difficulty %q", level)
	}
	v, i, ok := d.lookup(id)
	if !ok {
		return nil, notFound("qa", id)
	}
	q := d.videos[v][i]
	q.Difficulty = level
	return q.Clone(), nil
}

// Segments lists every segment referenced by a QA or carrying a review state
func (d *Dataset) Segments() []Segment {
	byID := map[string]*Segment{}
	get := func(id string) *Segment {
		s := byID[id]
		if s == nil {
			s = &Segment{ID: id, State: defaultReview}
			byID[id] = s
		}
		return s
	}
	for _, qas := range d.videos {
		for _, q := range qas {
			if q.SegmentID == "" {
				continue
			}
			s := get(q.SegmentID)
			s.VideoName = q.VideoName
			s.QACount++
		}
	}
	for id, st := range d.segments {
		s := get(id)
		s.State = st.State
		s.LastModify = st.LastModify
		if s.VideoName == "" {
			s.VideoName = st.VideoName
		}
	}
	list := make([]Segment, 0, len(byID))
	for _, s := range byID {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// SegmentQAs returns copies of the QAs in a segment
func (d *Dataset) SegmentQAs(segment string) ([]*QA, error) {
	var out []*QA
	for _, q := range d.All() {
		if q.SegmentID == segment {
			out = append(out, q)
		}
	}
	if out == nil && d.segments[segment] == nil {
		return nil, notFound("segment", segment)
	}
	return out, nil
}

// Segment returns the summary of one segment
func (d *Dataset) Segment(id string) (Segment, error) {
	for _, s := range d.Segments() {
		if s.ID == id {
			return s, nil
		}
	}
	return Segment{}, notFound("segment", id)
}

// AddToSegment creates a QA in segment, on the segment's video
func (d *Dataset) AddToSegment(segment string, p Patch) (*QA, error) {
	s, err := d.Segment(segment)
	if err != nil {
		return nil, err
	}
	if s.VideoName == "" {
		return nil, errors.Wrapf(ErrInvalid, "segment %q has no video", segment)
	}
	p.SegmentID = &segment
	return d.Create(s.VideoName, p)
}

// SetSegmentState records a review state for the segment
func (d *Dataset) SetSegmentState(segment, state string) (Segment, error) {
	if state == "" {
		return Segment{}, errors.Wrap(ErrInvalid, "empty segment state")
	}
	if _, err := d.SegmentQAs(segment); err != nil {
		return Segment{}, err
	}
	d.touch(segment)
	d.segments[segment].State = state
	return d.Segment(segment)
}

// Statistics counts QAs by version, answer, usability and question type.
// ClipSeconds is the total length of every QA whose interval is valid.
func (d *Dataset) Statistics() Statistics {
	st := Statistics{
		Videos:        len(d.videos),
		Segments:      len(d.Segments()),
		QuestionTypes: map[string]int{},
	}
	var clips timecode.Splice
	for _, qas := range d.videos {
		for _, q := range qas {
			st.QAs++
			if q.Version == VersionEdited {
				st.V2++
			} else {
				st.V1++
			}
			if q.Answered() {
				st.Answered++
			}
			if q.IsUsable() {
				st.Usable++
			}
			kind := q.QuestionType
			if kind == "" {
				kind = "Unknown"
			}
			st.QuestionTypes[kind]++
			if iv, err := q.Clip(Full); err == nil {
				clips = append(clips, iv.Range())
			}
		}
	}
	st.Unanswered = st.QAs - st.Answered
	st.Unusable = st.QAs - st.Usable
	st.ClipSeconds = clips.Size().Seconds()
	return st
}
