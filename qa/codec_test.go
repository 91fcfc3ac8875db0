package qa

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeLayouts(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantIDs  []string
		wantSegs int
		wantErr  bool
	}{
		{
			name:    "empty",
			in:      "  ",
			wantIDs: nil,
		},
		{
			name: "flat list",
			in: `[{"qa_id": "v1_qa_0", "video_name": "v1", "start_time": "00:01.00", "end_time": "00:02.00"},
			      {"qa_id": "v2_qa_0", "video_name": "v2"}]`,
			wantIDs: []string{"v1_qa_0", "v2_qa_0"},
		},
		{
			name:    "video map",
			in:      `{"b": [{"qa_id": "b_qa_1"}, {"qa_id": "b_qa_0"}], "a": [{"qa_id": "a_qa_0"}]}`,
			wantIDs: []string{"a_qa_0", "b_qa_0", "b_qa_1"},
		},
		{
			name: "review candidates",
			in: `{"seg_001": {"video_name": "v1", "state": "已审阅", "last_modify": "2024-01-01 10:00:00",
			      "qas": [{"qa_id": "v1_qa_0", "answer": "C"}]}}`,
			wantIDs:  []string{"v1_qa_0"},
			wantSegs: 1,
		},
		{
			name: "current document",
			in: `{"version": 2, "videos": {"v1": [{"qa_id": "v1_qa_0", "version": "v2"}]},
			      "segments": {"s": {"state": "待审阅"}}}`,
			wantIDs:  []string{"v1_qa_0"},
			wantSegs: 1,
		},
		{
			name:    "future version",
			in:      `{"version": 9, "videos": {}}`,
			wantErr: true,
		},
		{
			name:    "duplicate ids",
			in:      `[{"qa_id": "x"}, {"qa_id": "x"}]`,
			wantErr: true,
		},
		{
			name:    "scalar",
			in:      `42`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			var ids []string
			for _, q := range d.All() {
				ids = append(ids, q.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("Decode() ids (-want +got):\n%s", diff)
			}
			if got := len(d.Segments()); got != tt.wantSegs {
				t.Errorf("Decode() segments = %d, want %d", got, tt.wantSegs)
			}
		})
	}
}

func TestDecodeCandidateFields(t *testing.T) {
	d, err := Decode([]byte(`{"seg_001": {"video_name": "v1", "state": "已审阅",
		"qas": [{"qa_id": "v1_qa_0", "answer": "C", "视角": ["cam02.mp4"], "reviewer": "li"}]}}`))
	if err != nil {
		t.Fatal(err)
	}
	q, err := d.Get("v1_qa_0")
	if err != nil {
		t.Fatal(err)
	}
	if q.GroundTruth != "C" || q.SegmentID != "seg_001" || q.VideoName != "v1" || q.Version != VersionOriginal {
		t.Errorf("candidate qa = %+v", q)
	}
	if diff := cmp.Diff([]string{"cam02.mp4"}, q.MainViews); diff != "" {
		t.Errorf("legacy views (-want +got):\n%s", diff)
	}
	if _, ok := q.Extra["answer"]; ok {
		t.Error("answer key kept after mapping to ground_truth")
	}
	if string(q.Extra["reviewer"]) != `"li"` {
		t.Errorf("Extra[reviewer] = %s", q.Extra["reviewer"])
	}
}

func TestEncodeDecode(t *testing.T) {
	d := fixture(t)
	d.ToggleUsable("aria01_qa_3", "blurry")
	d.SetAnswer("aria01_qa_0", str("A"))
	d.SetSegmentState("seg1", "已审阅")

	in := d.All()
	p, err := json.Marshal(d.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(p), `"version":2`) {
		t.Errorf("encoded document has no version: %s", p)
	}

	back, err := Decode(p)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, back.All()); diff != "" {
		t.Errorf("round trip qas (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(d.Segments(), back.Segments()); diff != "" {
		t.Errorf("round trip segments (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(d.Videos(), back.Videos()); diff != "" {
		t.Errorf("round trip videos (-want +got):\n%s", diff)
	}
}

func TestCandidateSegmentKeysSurvive(t *testing.T) {
	d, err := Decode([]byte(`{"seg_001": {"video_name": "v1", "total_qas": 1, "sync_time": "2024-03-01",
		"qas": [{"qa_id": "v1_qa_0"}]}}`))
	if err != nil {
		t.Fatal(err)
	}
	p, err := json.Marshal(d.Encode())
	if err != nil {
		t.Fatal(err)
	}
	back, err := Decode(p)
	if err != nil {
		t.Fatal(err)
	}
	st := back.Encode().Segments["seg_001"]
	if st == nil {
		t.Fatalf("segment state lost: %s", p)
	}
	want := map[string]string{"total_qas": `1`, "sync_time": `"2024-03-01"`}
	got := map[string]string{}
	for k, v := range st.Extra {
		got[k] = string(v)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("segment keys (-want +got):\n%s", diff)
	}
	if st.State != defaultReview {
		t.Errorf("state = %q, want %q", st.State, defaultReview)
	}
}

func TestQAExtraSurvives(t *testing.T) {
	var q QA
	if err := json.Unmarshal([]byte(`{"qa_id": "a", "score": 0.5}`), &q); err != nil {
		t.Fatal(err)
	}
	p, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	var all map[string]interface{}
	json.Unmarshal(p, &all)
	if all["score"] != 0.5 {
		t.Errorf("unknown key lost: %s", p)
	}
}

func TestDecodeBadVideoEntry(t *testing.T) {
	_, err := Decode([]byte(`{"v1": "oops"}`))
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Decode() error = %v, want ErrInvalid", err)
	}
}
