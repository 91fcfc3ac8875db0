// Package client is a Go client for the annotation server's REST API.
package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/spatialbench/annotator/qa"
)

const (
	defaultTimeout = 30 * time.Second
	defaultBaseURL = "http://localhost:5000"
)

// Client holds the server location. The zero value talks to
// defaultBaseURL.
type Client struct {
	Base   *url.URL
	Client *http.Client
}

// New returns a client for the server at base
func New(base string) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	c := &Client{Base: u}
	c.ensure()
	return c, nil
}

func (c *Client) ensure() {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: defaultTimeout}
	}

	if c.Base == nil {
		c.Base = urlMust(url.Parse(defaultBaseURL))
	}
}

func urlMust(u *url.URL, _ error) *url.URL { return u }

func esc(s string) string { return url.PathEscape(s) }

// Files lists the dataset documents on the server
func (c *Client) Files(ctx context.Context) (Files, error) {
	c.ensure()
	var resp Files
	err := c.getResource(ctx, &resp, "/api/files")
	return resp, err
}

// Load opens file for mode. An empty mode loads it for every mode.
func (c *Client) Load(ctx context.Context, file string, mode Mode) (Loaded, error) {
	c.ensure()
	var resp Loaded
	err := c.postResource(ctx, loadRequest{FileName: file, Mode: mode}, &resp, "/api/files/load")
	return resp, err
}

// Videos lists the constructor dataset's videos
func (c *Client) Videos(ctx context.Context) ([]qa.Video, error) {
	c.ensure()
	var resp []qa.Video
	err := c.getResource(ctx, &resp, "/api/constructor/videos")
	return resp, err
}

// VideoQAs lists the QAs of one video, ordered by id
func (c *Client) VideoQAs(ctx context.Context, video string) ([]*qa.QA, error) {
	c.ensure()
	var resp []*qa.QA
	err := c.getResource(ctx, &resp, "/api/constructor/video/"+esc(video)+"/qas")
	return resp, err
}

// VideoInfo describes one video and where to play it
func (c *Client) VideoInfo(ctx context.Context, video string) (VideoInfo, error) {
	c.ensure()
	var resp VideoInfo
	err := c.getResource(ctx, &resp, "/api/constructor/video/"+esc(video)+"/info")
	return resp, err
}

// CreateQA adds a QA to video
func (c *Client) CreateQA(ctx context.Context, video string, p qa.Patch) (*qa.QA, error) {
	c.ensure()
	resp := &qa.QA{}
	if err := c.postResource(ctx, p, resp, "/api/constructor/video/"+esc(video)+"/qa"); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetQA fetches one QA from the mode's dataset
func (c *Client) GetQA(ctx context.Context, mode Mode, id string) (*qa.QA, error) {
	c.ensure()
	resp := &qa.QA{}
	if err := c.getResource(ctx, resp, "/api/"+string(mode)+"/qa/"+esc(id)); err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateQA applies p to one QA of the mode's dataset
func (c *Client) UpdateQA(ctx context.Context, mode Mode, id string, p qa.Patch) (*qa.QA, error) {
	c.ensure()
	resp := &qa.QA{}
	if err := c.putResource(ctx, p, resp, "/api/"+string(mode)+"/qa/"+esc(id)); err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteQA removes one QA from the mode's dataset
func (c *Client) DeleteQA(ctx context.Context, mode Mode, id string) error {
	c.ensure()
	var resp Result
	return c.removeResource(ctx, &resp, "/api/"+string(mode)+"/qa/"+esc(id))
}

// DuplicateQA copies a constructor QA under a new id
func (c *Client) DuplicateQA(ctx context.Context, id string) (*qa.QA, error) {
	c.ensure()
	resp := &qa.QA{}
	if err := c.postResource(ctx, nil, resp, "/api/constructor/qa/"+esc(id)+"/duplicate"); err != nil {
		return nil, err
	}
	return resp, nil
}

// Statistics summarizes the mode's dataset
func (c *Client) Statistics(ctx context.Context, mode Mode) (qa.Statistics, error) {
	c.ensure()
	var resp qa.Statistics
	err := c.getResource(ctx, &resp, "/api/"+string(mode)+"/statistics")
	return resp, err
}

// Save writes the mode's dataset back to storage
func (c *Client) Save(ctx context.Context, mode Mode) (Result, error) {
	c.ensure()
	var resp Result
	err := c.postResource(ctx, nil, &resp, "/api/"+string(mode)+"/save")
	return resp, err
}

// Segments lists the review dataset's segments
func (c *Client) Segments(ctx context.Context) ([]qa.Segment, error) {
	c.ensure()
	var resp []qa.Segment
	err := c.getResource(ctx, &resp, "/api/review/segments")
	return resp, err
}

// SegmentQAs lists the QAs of one segment
func (c *Client) SegmentQAs(ctx context.Context, segment string) ([]*qa.QA, error) {
	c.ensure()
	var resp []*qa.QA
	err := c.getResource(ctx, &resp, "/api/review/segment/"+esc(segment)+"/qas")
	return resp, err
}

// SetSegmentState records the review state of a segment
func (c *Client) SetSegmentState(ctx context.Context, segment, state string) (qa.Segment, error) {
	c.ensure()
	var resp qa.Segment
	body := struct {
		State string `json:"state"`
	}{state}
	err := c.postResource(ctx, body, &resp, "/api/review/segment/"+esc(segment)+"/status")
	return resp, err
}

// AddSegmentQA creates a QA in a review segment, on the segment's video
func (c *Client) AddSegmentQA(ctx context.Context, segment string, p qa.Patch) (*qa.QA, error) {
	c.ensure()
	resp := &qa.QA{}
	if err := c.postResource(ctx, p, resp, "/api/review/segment/"+esc(segment)+"/qa"); err != nil {
		return nil, err
	}
	return resp, nil
}

// SegmentVideo describes the video a review segment plays
func (c *Client) SegmentVideo(ctx context.Context, segment string) (VideoInfo, error) {
	c.ensure()
	var resp VideoInfo
	err := c.getResource(ctx, &resp, "/api/review/segment/"+esc(segment)+"/video")
	return resp, err
}

// AutoSave reports whether the mode's dataset is saved after every change
func (c *Client) AutoSave(ctx context.Context, mode Mode) (AutoSave, error) {
	c.ensure()
	var resp AutoSave
	err := c.getResource(ctx, &resp, "/api/"+string(mode)+"/auto-save")
	return resp, err
}

// SetAutoSave turns auto-save on or off for the mode's dataset
func (c *Client) SetAutoSave(ctx context.Context, mode Mode, enabled bool) (AutoSave, error) {
	c.ensure()
	var resp AutoSave
	body := struct {
		Enabled bool `json:"enabled"`
	}{enabled}
	err := c.postResource(ctx, body, &resp, "/api/"+string(mode)+"/auto-save")
	return resp, err
}

// QuizQAs lists every QA of the quiz dataset
func (c *Client) QuizQAs(ctx context.Context) ([]*qa.QA, error) {
	c.ensure()
	var resp []*qa.QA
	err := c.getResource(ctx, &resp, "/api/quiz/qas")
	return resp, err
}

// Answer records an answer; nil clears it
func (c *Client) Answer(ctx context.Context, id string, answer *string) (*qa.QA, error) {
	c.ensure()
	resp := &qa.QA{}
	body := struct {
		Answer *string `json:"answer"`
	}{answer}
	if err := c.postResource(ctx, body, resp, "/api/quiz/qa/"+esc(id)+"/answer"); err != nil {
		return nil, err
	}
	return resp, nil
}

// ToggleUsable flips a QA's usable flag, recording reason when it
// becomes unusable
func (c *Client) ToggleUsable(ctx context.Context, id, reason string) (*qa.QA, error) {
	c.ensure()
	resp := &qa.QA{}
	body := struct {
		Reason string `json:"reason"`
	}{reason}
	if err := c.postResource(ctx, body, resp, "/api/quiz/qa/"+esc(id)+"/toggle-usable"); err != nil {
		return nil, err
	}
	return resp, nil
}

// SetDifficulty grades a QA
func (c *Client) SetDifficulty(ctx context.Context, id string, d qa.Difficulty) (*qa.QA, error) {
	c.ensure()
	resp := &qa.QA{}
	body := struct {
		Difficulty qa.Difficulty `json:"difficulty"`
	}{d}
	if err := c.postResource(ctx, body, resp, "/api/quiz/qa/"+esc(id)+"/difficulty"); err != nil {
		return nil, err
	}
	return resp, nil
}

// Clip returns the playback window for part of a QA
func (c *Client) Clip(ctx context.Context, id string, part qa.Part) (Clip, error) {
	c.ensure()
	var resp Clip
	q := url.Values{}
	if part != "" {
		q.Set("part", string(part))
	}
	path := "/api/qa/" + esc(id) + "/clip"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	err := c.getResource(ctx, &resp, path)
	return resp, err
}

// Timecode parses text on the server
func (c *Client) Timecode(ctx context.Context, text string) (Timecode, error) {
	c.ensure()
	var resp Timecode
	err := c.getResource(ctx, &resp, "/api/timecode?"+url.Values{"t": {text}}.Encode())
	return resp, err
}

// Sources lists the videos in the server's video directory
func (c *Client) Sources(ctx context.Context) ([]Source, error) {
	c.ensure()
	var resp []Source
	err := c.getResource(ctx, &resp, "/api/videos")
	return resp, err
}

// Perspectives lists the perspective files of a video
func (c *Client) Perspectives(ctx context.Context, video string) ([]string, error) {
	c.ensure()
	var resp []string
	err := c.getResource(ctx, &resp, "/api/videos/"+esc(video)+"/perspectives")
	return resp, err
}

// VideoDir reports the server's video directory
func (c *Client) VideoDir(ctx context.Context) (VideoDir, error) {
	c.ensure()
	var resp VideoDir
	err := c.getResource(ctx, &resp, "/api/videos/directory")
	return resp, err
}

// SetVideoDir points the server's video catalog at dir, which must exist
// on the server
func (c *Client) SetVideoDir(ctx context.Context, dir string) (VideoDir, error) {
	c.ensure()
	var resp VideoDir
	body := struct {
		Dir string `json:"video_dir"`
	}{dir}
	err := c.postResource(ctx, body, &resp, "/api/videos/directory")
	return resp, err
}
