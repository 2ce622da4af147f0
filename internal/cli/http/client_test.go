package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientDo(t *testing.T) {
	var gotBody, gotTrace, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotTrace = r.Header.Get("X-Trace-Id")
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	resp, err := c.Do(context.Background(), http.MethodPost, "/gcc/", map[string]string{"X-Trace-Id": "t-1", "X-Empty": ""}, []byte(`{"code":"x"}`))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted || string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected response: %d %s", resp.StatusCode, resp.Body)
	}
	if gotBody != `{"code":"x"}` || gotTrace != "t-1" || gotType != "application/json" {
		t.Fatalf("unexpected request: body=%q trace=%q type=%q", gotBody, gotTrace, gotType)
	}
}

func TestClientSetters(t *testing.T) {
	c := New("http://a/", time.Second)
	c.SetBaseURL("http://b//")
	c.SetTimeout(0)
	if c.BaseURL() != "http://b" || c.Timeout() != time.Second {
		t.Fatalf("unexpected client state: %s %s", c.BaseURL(), c.Timeout())
	}
	c.SetTimeout(3 * time.Second)
	if c.Timeout() != 3*time.Second {
		t.Fatalf("expected timeout update, got %s", c.Timeout())
	}
}

func TestClientRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	if _, err := New(url, time.Second).Do(context.Background(), http.MethodGet, "/languages", nil, nil); err == nil {
		t.Fatal("expected request error against closed server")
	}
}
