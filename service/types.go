package service

import (
	"github.com/spatialbench/annotator/db"
	"github.com/spatialbench/annotator/qa"
)

// LoadRequest opens a dataset file for a mode
type LoadRequest struct {
	FileName string `json:"file_name"`
	Mode     Mode   `json:"mode"`
}

// LoadResponse describes the dataset that was opened
type LoadResponse struct {
	FileName string `json:"file_name"`
	Mode     Mode   `json:"mode"`
	Videos   int    `json:"videos"`
	QAs      int    `json:"qas"`
}

// FilesResponse lists the stored dataset files, newest first, and what
// each mode has loaded
type FilesResponse struct {
	Files  []db.Entry      `json:"files"`
	Loaded map[Mode]string `json:"loaded"`
}

// VideoInfo is what the constructor needs to show one video
type VideoInfo struct {
	Name         string   `json:"video_name"`
	Segment      string   `json:"segment_id,omitempty"`
	QACount      int      `json:"qa_count"`
	Perspective  string   `json:"perspective,omitempty"`
	Perspectives []string `json:"perspectives"`
	URL          string   `json:"video_url,omitempty"`
}

// ClipResponse is the playback window for one part of a QA
type ClipResponse struct {
	ID        string  `json:"qa_id"`
	Part      qa.Part `json:"part"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Duration  float64 `json:"duration"`
	URL       string  `json:"video_url,omitempty"`
}

// TimecodeResponse converts between clock text and seconds
type TimecodeResponse struct {
	Text      string  `json:"text"`
	Seconds   float64 `json:"seconds"`
	Canonical string  `json:"canonical"`
}

// AnswerRequest records an answer; a null answer clears it
type AnswerRequest struct {
	Answer *string `json:"answer"`
}

// ToggleRequest carries the reason when marking a QA unusable
type ToggleRequest struct {
	Reason string `json:"reason"`
}

// DifficultyRequest grades a QA
type DifficultyRequest struct {
	Difficulty qa.Difficulty `json:"difficulty"`
}

// StateRequest sets the review state of a segment
type StateRequest struct {
	State string `json:"state"`
}

// Result acknowledges an operation with no other payload
type Result struct {
	Ok  bool   `json:"ok"`
	ID  string `json:"id,omitempty"`
	Key string `json:"key,omitempty"`
}

// AutoSaveRequest turns auto-save on or off for a mode's dataset
type AutoSaveRequest struct {
	Enabled *bool `json:"enabled"`
}

// AutoSaveResponse reports the auto-save setting of a mode's dataset
type AutoSaveResponse struct {
	Key     string `json:"file_name"`
	Enabled bool   `json:"enabled"`
}

// VideoDirRequest points the video catalog at a directory
type VideoDirRequest struct {
	VideoDir string `json:"video_dir"`
}

// VideoDirResponse describes the catalog's directory
type VideoDirResponse struct {
	VideoDir   string   `json:"video_dir"`
	Exists     bool     `json:"exists"`
	VideoCount int      `json:"video_count"`
	Videos     []string `json:"videos"`
}
