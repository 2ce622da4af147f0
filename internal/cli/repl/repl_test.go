package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Gooit/Interpreter/internal/cli/command"
	"github.com/Gooit/Interpreter/internal/cli/config"
	httpclient "github.com/Gooit/Interpreter/internal/cli/http"
)

type recordedRequest struct {
	method string
	path   string
	body   map[string]interface{}
}

func newJudgeServer(t *testing.T, reply string, got *recordedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.body = nil
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newSession(baseURL string, out *bytes.Buffer) *Session {
	client := httpclient.New(baseURL, time.Second)
	defaults := config.Defaults{TimeLimitMs: 1000, MemoryLimitKB: 65536}
	return New(client, command.Registry(), defaults, true, out)
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.py")
	if err := os.WriteFile(path, []byte("print(1)\n"), 0o600); err != nil {
		t.Fatalf("write source failed: %v", err)
	}
	return path
}

func TestSubmitAppliesDefaultsAndRendersVerdict(t *testing.T) {
	var got recordedRequest
	srv := newJudgeServer(t, `{"status":true,"msg":"Accepted","data":{"time_used":12,"memory_used":3400}}`, &got)
	var out bytes.Buffer
	s := newSession(srv.URL, &out)

	if !s.Execute(context.Background(), "submit python "+writeSource(t)+" problem=1001") {
		t.Fatal("expected session to continue")
	}
	if got.method != http.MethodPost || got.path != "/python/" {
		t.Fatalf("unexpected request: %s %s", got.method, got.path)
	}
	if got.body["time_limited"] != float64(1000) || got.body["memory_limited"] != float64(65536) {
		t.Fatalf("expected default limits, got %v", got.body)
	}
	if !strings.Contains(out.String(), "verdict: Accepted (time 12ms, memory 3400KB)") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestSubmitRendersCompileDetail(t *testing.T) {
	var got recordedRequest
	srv := newJudgeServer(t, `{"status":false,"msg":"Compile Error","data":null,"detail":"a.c:1: error"}`, &got)
	var out bytes.Buffer
	s := newSession(srv.URL, &out)

	s.Execute(context.Background(), "submit gcc "+writeSource(t)+" problem=1 time=500")
	if got.body["time_limited"] != float64(500) {
		t.Fatalf("expected explicit time limit, got %v", got.body["time_limited"])
	}
	if !strings.Contains(out.String(), "verdict: Compile Error") || !strings.Contains(out.String(), "a.c:1: error") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestMissingFieldPrompts(t *testing.T) {
	var got recordedRequest
	srv := newJudgeServer(t, `{"status":false,"msg":"Wrong Answer","data":null}`, &got)
	var out bytes.Buffer
	s := newSession(srv.URL, &out)

	s.Execute(context.Background(), "submit python "+writeSource(t))
	if !strings.Contains(out.String(), "missing problem_id") {
		t.Fatalf("expected missing field error without a prompt, got %s", out.String())
	}

	var asked []string
	s.ask = func(label string) (string, error) {
		asked = append(asked, label)
		return "77", nil
	}
	s.Execute(context.Background(), "submit python "+writeSource(t))
	if len(asked) != 1 || asked[0] != "problem id" {
		t.Fatalf("expected one prompt for problem id, got %v", asked)
	}
	if got.body["problem_id"] != float64(77) {
		t.Fatalf("expected prompted problem id, got %v", got.body["problem_id"])
	}
}

func TestLanguagesPrettyPrints(t *testing.T) {
	var got recordedRequest
	srv := newJudgeServer(t, `{"code":0,"message":"Success","data":[{"id":"gcc","name":"GNU C"}]}`, &got)
	var out bytes.Buffer
	s := newSession(srv.URL, &out)

	s.Execute(context.Background(), "languages")
	if got.method != http.MethodGet || got.path != "/languages" {
		t.Fatalf("unexpected request: %s %s", got.method, got.path)
	}
	if !strings.Contains(out.String(), "\"id\": \"gcc\"") {
		t.Fatalf("expected indented json, got %s", out.String())
	}
}

func TestSystemCommands(t *testing.T) {
	var out bytes.Buffer
	s := newSession("http://127.0.0.1:1", &out)
	ctx := context.Background()

	s.Execute(ctx, "set base http://judge:8085/")
	s.Execute(ctx, "set timeout 5s")
	s.Execute(ctx, "set time 3000")
	s.Execute(ctx, "set memory nope")
	if s.client.BaseURL() != "http://judge:8085" || s.client.Timeout() != 5*time.Second {
		t.Fatalf("unexpected client state: %s %s", s.client.BaseURL(), s.client.Timeout())
	}
	if s.defaults.TimeLimitMs != 3000 || s.defaults.MemoryLimitKB != 65536 {
		t.Fatalf("unexpected defaults: %+v", s.defaults)
	}
	if !strings.Contains(out.String(), "invalid memory limit") {
		t.Fatalf("expected invalid memory message, got %s", out.String())
	}

	out.Reset()
	s.Execute(ctx, "bogus")
	if !strings.Contains(out.String(), "unknown command: bogus") {
		t.Fatalf("expected unknown command, got %s", out.String())
	}
	out.Reset()
	s.Execute(ctx, "help")
	if !strings.Contains(out.String(), "submit <language> <file>") {
		t.Fatalf("expected usage in help, got %s", out.String())
	}
	if s.Execute(ctx, "exit") {
		t.Fatal("expected exit to end the session")
	}
}
