package client

import (
	"time"

	"github.com/spatialbench/annotator/qa"
)

// Mode names a dataset workflow on the server
type Mode string

const (
	Constructor = Mode("constructor")
	Review      = Mode("review")
	Quiz        = Mode("quiz")
)

// File is a stored dataset document
type File struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Files lists the stored documents and the document each mode has loaded
type Files struct {
	Files  []File          `json:"files"`
	Loaded map[Mode]string `json:"loaded"`
}

type loadRequest struct {
	FileName string `json:"file_name"`
	Mode     Mode   `json:"mode,omitempty"`
}

// Loaded describes a freshly loaded dataset
type Loaded struct {
	FileName string `json:"file_name"`
	Mode     Mode   `json:"mode"`
	Videos   int    `json:"videos"`
	QAs      int    `json:"qas"`
}

// VideoInfo describes the video of a constructor video or review segment
type VideoInfo struct {
	Name         string   `json:"video_name"`
	Segment      string   `json:"segment_id"`
	QACount      int      `json:"qa_count"`
	Perspective  string   `json:"perspective"`
	Perspectives []string `json:"perspectives"`
	URL          string   `json:"video_url"`
}

// Clip is the playback window of a QA part
type Clip struct {
	ID        string  `json:"qa_id"`
	Part      qa.Part `json:"part"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Duration  float64 `json:"duration"`
	URL       string  `json:"video_url"`
}

// Timecode is a parsed clock value
type Timecode struct {
	Text      string  `json:"text"`
	Seconds   float64 `json:"seconds"`
	Canonical string  `json:"canonical"`
}

// Source is a video known to the server's catalog
type Source struct {
	Name  string   `json:"name"`
	Kind  string   `json:"type"`
	Files []string `json:"files"`
}

// Result acknowledges a delete or save
type Result struct {
	Ok  bool   `json:"ok"`
	ID  string `json:"id"`
	Key string `json:"key"`
}

// AutoSave is a mode's auto-save setting
type AutoSave struct {
	FileName string `json:"file_name"`
	Enabled  bool   `json:"enabled"`
}

// VideoDir describes the server's video directory
type VideoDir struct {
	Dir        string   `json:"video_dir"`
	Exists     bool     `json:"exists"`
	VideoCount int      `json:"video_count"`
	Videos     []string `json:"videos"`
}
