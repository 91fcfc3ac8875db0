package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testReqBody struct {
	SomeReqProp propType `json:"some_req_prop"`
}

type testResp struct {
	SomeProp propType `json:"some_prop"`
}

type propType struct {
	Name string `json:"name"`
}

func TestDo(t *testing.T) {
	tests := []struct {
		title   string
		backend http.HandlerFunc
		method  string
		reqBody interface{}
		path    string
		want    testResp
		wantErr *APIError
	}{
		{
			title: "marshal",
			backend: func(w http.ResponseWriter, r *http.Request) {
				writeProp(w, "test_name")
			},
			method: http.MethodGet,
			want:   testResp{SomeProp: propType{Name: "test_name"}},
		},
		{
			title: "path",
			backend: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/test_path" {
					writeProp(w, "success")
				}
			},
			path:   "/test_path",
			method: http.MethodGet,
			want:   testResp{SomeProp: propType{Name: "success"}},
		},
		{
			title: "body",
			backend: func(w http.ResponseWriter, r *http.Request) {
				reqBody := testReqBody{}
				err := json.NewDecoder(r.Body).Decode(&reqBody)
				if err == nil && reqBody.SomeReqProp.Name == "req_body" && r.Header.Get("Content-Type") == "application/json" {
					writeProp(w, "success")
				}
			},
			method:  http.MethodPost,
			reqBody: testReqBody{SomeReqProp: propType{Name: "req_body"}},
			want:    testResp{SomeProp: propType{Name: "success"}},
		},
		{
			title: "method",
			backend: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPut {
					writeProp(w, "success")
				}
			},
			method: http.MethodPut,
			want:   testResp{SomeProp: propType{Name: "success"}},
		},
		{
			title: "platform error",
			backend: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"ok": false, "status": 404, "rid": "r1", "msg": "get qa: not found"}`))
			},
			method:  http.MethodGet,
			wantErr: &APIError{Status: 404, Rid: "r1", Msg: "get qa: not found"},
		},
		{
			title: "plain error",
			backend: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream gone", http.StatusBadGateway)
			},
			method:  http.MethodGet,
			wantErr: &APIError{Status: 502, Msg: "upstream gone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			backend := httptest.NewServer(tt.backend)
			defer backend.Close()
			backendURL, err := url.Parse(backend.URL)
			if err != nil {
				t.Fatal(err)
			}

			client := Client{Base: backendURL}
			client.ensure()

			got := testResp{}
			err = client.do(context.Background(), tt.method, tt.path, tt.reqBody, &got)
			if tt.wantErr != nil {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("do() error = %v, want an APIError", err)
				}
				if diff := cmp.Diff(tt.wantErr, apiErr); diff != "" {
					t.Errorf("do() error mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("do() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAPIErrorNotFound(t *testing.T) {
	if !(&APIError{Status: 404}).NotFound() || (&APIError{Status: 400}).NotFound() {
		t.Error("NotFound() disagrees with the status")
	}
}

func writeProp(w http.ResponseWriter, prop string) {
	_, _ = w.Write([]byte(`{ "some_prop": { "name": "` + prop + `"} }`))
}
