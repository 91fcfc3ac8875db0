package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status int    `json:"status"`
	Rid    string `json:"rid"`
	Msg    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("annotator: status %d: %s (rid %s)", e.Status, e.Msg, e.Rid)
}

// NotFound reports whether the server answered 404
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

func (c *Client) getResource(ctx context.Context, result interface{}, path string) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) postResource(ctx context.Context, resource interface{}, result interface{}, path string) error {
	return c.do(ctx, http.MethodPost, path, resource, result)
}

func (c *Client) putResource(ctx context.Context, resource interface{}, result interface{}, path string) error {
	return c.do(ctx, http.MethodPut, path, resource, result)
}

func (c *Client) removeResource(ctx context.Context, result interface{}, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

func (c *Client) do(ctx context.Context, method string, path string, reqBody interface{}, result interface{}) error {
	var body bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&body).Encode(reqBody); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base.String()+path, &body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		apiErr := &APIError{}
		if json.Unmarshal(b, apiErr) != nil || apiErr.Status == 0 {
			apiErr = &APIError{Status: resp.StatusCode, Msg: string(bytes.TrimSpace(b))}
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
