package qa

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/cbsinteractive/pkg/timecode"
	"github.com/pkg/errors"
	"github.com/spatialbench/annotator/clip"
	tc "github.com/spatialbench/annotator/timecode"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrInvalid    = errors.New("invalid value")
	ErrNoCutPoint = errors.New("qa has no cut point")
)

// Direction is the temporal direction a question asks about
type Direction string

const (
	Forward  = Direction("Forward")
	Backward = Direction("Backward")
)

// Difficulty is the annotator's grading of a question
type Difficulty string

const (
	Simple = Difficulty("Simple")
	Medium = Difficulty("Medium")
	Hard   = Difficulty("Difficulty")
)

// Valid reports whether d is one of the three grades
func (d Difficulty) Valid() bool {
	return d == Simple || d == Medium || d == Hard
}

// Part selects which sub-clip of a QA to play
type Part string

const (
	Full     = Part("full")
	First    = Part("first")
	Second   = Part("second")
	Directed = Part("directed")
)

// QA is a question-answer record tied to a span of one video
type QA struct {
	ID        string `json:"qa_id"`
	VideoName string `json:"video_name"`
	SegmentID string `json:"segment_id,omitempty"`

	MainViews   []string `json:"主视角,omitempty"`
	AskViews    []string `json:"提问视角,omitempty"`
	AskViewTime *string  `json:"提问视角_time,omitempty"`

	Question     string    `json:"question"`
	Options      []string  `json:"options"`
	GroundTruth  string    `json:"ground_truth"`
	HumanAnswer  *string   `json:"human_answer"`
	QuestionType string    `json:"question_type"`
	Direction    Direction `json:"temporal_direction"`

	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	CutPoint  string `json:"cut_point"`

	Usable        *bool      `json:"usable,omitempty"`
	UselessReason string     `json:"useless_reason,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	Version       string     `json:"version,omitempty"`

	// Extra holds keys this type does not model so they survive a rewrite
	Extra map[string]json.RawMessage `json:"-"`
}

type plainQA QA

// legacy single perspective list, folded into MainViews on decode
const legacyViews = "视角"

var known = map[string]bool{
	"qa_id": true, "video_name": true, "segment_id": true,
	"主视角": true, "提问视角": true, "提问视角_time": true,
	"question": true, "options": true, "ground_truth": true, "human_answer": true,
	"question_type": true, "temporal_direction": true,
	"start_time": true, "end_time": true, "cut_point": true,
	"usable": true, "useless_reason": true, "difficulty": true, "version": true,
}

func (q *QA) UnmarshalJSON(p []byte) error {
	if err := json.Unmarshal(p, (*plainQA)(q)); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(p, &all); err != nil {
		return err
	}
	q.Extra = nil
	for k, v := range all {
		if known[k] {
			continue
		}
		if k == legacyViews {
			var views []string
			if json.Unmarshal(v, &views) == nil {
				if len(q.MainViews) == 0 {
					q.MainViews = views
				}
				continue
			}
		}
		if q.Extra == nil {
			q.Extra = map[string]json.RawMessage{}
		}
		q.Extra[k] = v
	}
	return nil
}

func (q QA) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(plainQA(q))
	if err != nil || len(q.Extra) == 0 {
		return b, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for k, v := range q.Extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// IsUsable treats an unset flag as usable
func (q *QA) IsUsable() bool {
	return q.Usable == nil || *q.Usable
}

// Answered reports whether a human answer is recorded
func (q *QA) Answered() bool {
	return q.HumanAnswer != nil
}

// Clone returns a deep copy of q
func (q *QA) Clone() *QA {
	c := *q
	c.MainViews = copyStrings(q.MainViews)
	c.AskViews = copyStrings(q.AskViews)
	c.Options = copyStrings(q.Options)
	if q.AskViewTime != nil {
		s := *q.AskViewTime
		c.AskViewTime = &s
	}
	if q.HumanAnswer != nil {
		s := *q.HumanAnswer
		c.HumanAnswer = &s
	}
	if q.Usable != nil {
		u := *q.Usable
		c.Usable = &u
	}
	if q.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(q.Extra))
		for k, v := range q.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

// Perspective is the view to load first: the main view, else the asking view
func (q *QA) Perspective() string {
	if len(q.MainViews) > 0 {
		return q.MainViews[0]
	}
	if len(q.AskViews) > 0 {
		return q.AskViews[0]
	}
	return ""
}

// Clip returns the playback interval for part
func (q *QA) Clip(part Part) (clip.Interval, error) {
	start, err := tc.Parse(q.StartTime)
	if err != nil {
		return clip.Interval{}, errors.Wrap(err, "start_time")
	}
	end, err := tc.Parse(q.EndTime)
	if err != nil {
		return clip.Interval{}, errors.Wrap(err, "end_time")
	}
	iv := clip.Interval{Start: start, End: end}

	if part == Directed {
		switch {
		case q.CutPoint == "":
			part = Full
		case q.Direction == Backward:
			part = Second
		default:
			part = First
		}
	}
	switch part {
	case Full, "":
	case First, Second:
		if q.CutPoint == "" {
			return clip.Interval{}, ErrNoCutPoint
		}
		cut, err := tc.Parse(q.CutPoint)
		if err != nil {
			return clip.Interval{}, errors.Wrap(err, "cut_point")
		}
		if part == First {
			iv.End = cut
		} else {
			iv.Start = cut
		}
	default:
		return clip.Interval{}, errors.Wrapf(ErrInvalid, "part %q", part)
	}
	return iv, iv.Validate()
}

// Halves splits the QA at its cut point into the sub-clips before and
// after the cut.
func (q *QA) Halves() (timecode.Splice, error) {
	first, err := q.Clip(First)
	if err != nil {
		return nil, err
	}
	second, err := q.Clip(Second)
	if err != nil {
		return nil, err
	}
	return timecode.Splice{first.Range(), second.Range()}, nil
}

// Patch is a partial update of the editable QA fields. Identity fields
// (qa_id, video_name, version) are not editable.
type Patch struct {
	SegmentID     *string     `json:"segment_id"`
	MainViews     *[]string   `json:"主视角"`
	AskViews      *[]string   `json:"提问视角"`
	AskViewTime   *string     `json:"提问视角_time"`
	Question      *string     `json:"question"`
	Options       *[]string   `json:"options"`
	GroundTruth   *string     `json:"ground_truth"`
	QuestionType  *string     `json:"question_type"`
	Direction     *Direction  `json:"temporal_direction"`
	StartTime     *string     `json:"start_time"`
	EndTime       *string     `json:"end_time"`
	CutPoint      *string     `json:"cut_point"`
	Usable        *bool       `json:"usable"`
	UselessReason *string     `json:"useless_reason"`
	Difficulty    *Difficulty `json:"difficulty"`
}

func canonicalTime(name string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	s, err := tc.Canonical(*v)
	if err != nil {
		return errors.Wrap(err, name)
	}
	*v = s
	return nil
}

// normalize validates p and rewrites its time fields in canonical form
func (p *Patch) normalize() error {
	if err := canonicalTime("start_time", p.StartTime); err != nil {
		return err
	}
	if err := canonicalTime("end_time", p.EndTime); err != nil {
		return err
	}
	if err := canonicalTime("cut_point", p.CutPoint); err != nil {
		return err
	}
	if p.Difficulty != nil && *p.Difficulty != "" && !p.Difficulty.Valid() {
		return errors.Wrapf(ErrInvalid, "difficulty %q", *p.Difficulty)
	}
	if p.Direction != nil && *p.Direction != "" && *p.Direction != Forward && *p.Direction != Backward {
		return errors.Wrapf(ErrInvalid, "temporal_direction %q", *p.Direction)
	}
	return nil
}

func (p *Patch) apply(q *QA) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&q.SegmentID, p.SegmentID)
	set(&q.Question, p.Question)
	set(&q.GroundTruth, p.GroundTruth)
	set(&q.QuestionType, p.QuestionType)
	set(&q.StartTime, p.StartTime)
	set(&q.EndTime, p.EndTime)
	set(&q.CutPoint, p.CutPoint)
	set(&q.UselessReason, p.UselessReason)
	if p.MainViews != nil {
		q.MainViews = copyStrings(*p.MainViews)
	}
	if p.AskViews != nil {
		q.AskViews = copyStrings(*p.AskViews)
	}
	if p.AskViewTime != nil {
		s := *p.AskViewTime
		q.AskViewTime = &s
	}
	if p.Options != nil {
		q.Options = copyStrings(*p.Options)
	}
	if p.Direction != nil {
		q.Direction = *p.Direction
	}
	if p.Usable != nil {
		u := *p.Usable
		q.Usable = &u
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
}

// ordinal returns N for ids of the form <video>_qa_N, else -1
func ordinal(id string) int {
	i := strings.LastIndex(id, "_qa_")
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(id[i+len("_qa_"):])
	if err != nil {
		return -1
	}
	return n
}

func sortQAs(qas []*QA) {
	sort.SliceStable(qas, func(i, j int) bool {
		a, b := ordinal(qas[i].ID), ordinal(qas[j].ID)
		if a != b && a >= 0 && b >= 0 {
			return a < b
		}
		return qas[i].ID < qas[j].ID
	})
}
