package control

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/peragwin/recorder/app"
	"github.com/peragwin/recorder/audio/scratch"
)

type fakeRecorder struct {
	state app.State
}

func (f *fakeRecorder) Press() error {
	f.state = (f.state + 1) % 4
	return nil
}

func (f *fakeRecorder) Reset() error {
	if !f.state.ResetEnabled() {
		return app.ErrResetDisabled
	}
	f.state = app.BeforeRecording
	return nil
}

func (f *fakeRecorder) State() app.State       { return f.state }
func (f *fakeRecorder) ResetEnabled() bool     { return f.state.ResetEnabled() }
func (f *fakeRecorder) Elapsed() time.Duration { return 75 * time.Second }
func (f *fakeRecorder) Session() string        { return "abc" }

func newServer(t *testing.T, rec *fakeRecorder, sum *scratch.Summary) *Server {
	t.Helper()
	s, err := New(rec,
		func() []int { return []int{3, 2, 1} },
		func() *scratch.Summary { return sum },
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestQuery(t *testing.T) {
	s := newServer(t, new(fakeRecorder), &scratch.Summary{Duration: 2 * time.Second, Peak: 0.5, RMS: 0.25})

	res := s.Query(`{ state elapsed resetEnabled session amplitudes(last: 2) recording { duration peak rms } }`, nil)
	if res.HasErrors() {
		t.Fatal(res.Errors)
	}
	data := res.Data.(map[string]interface{})
	if data["state"] != "idle" {
		t.Fatal("unexpected state", data["state"])
	}
	if data["elapsed"] != "01:15" {
		t.Fatal("unexpected elapsed", data["elapsed"])
	}
	if data["resetEnabled"] != false {
		t.Fatal("reset should be disabled while idle")
	}
	if data["session"] != "abc" {
		t.Fatal("unexpected session", data["session"])
	}
	if amps := data["amplitudes"].([]interface{}); len(amps) != 2 || amps[0] != 3 {
		t.Fatal("unexpected amplitudes", amps)
	}
	rec := data["recording"].(map[string]interface{})
	if rec["duration"] != 2.0 || rec["peak"] != 0.5 || rec["rms"] != 0.25 {
		t.Fatal("unexpected recording summary", rec)
	}
}

func TestQueryNoRecording(t *testing.T) {
	s := newServer(t, new(fakeRecorder), nil)
	res := s.Query(`{ recording { duration } }`, nil)
	if res.HasErrors() {
		t.Fatal(res.Errors)
	}
	if r := res.Data.(map[string]interface{})["recording"]; r != nil {
		t.Fatal("expected no recording, got", r)
	}
}

func TestMutations(t *testing.T) {
	rec := new(fakeRecorder)
	s := newServer(t, rec, nil)

	res := s.Query(`mutation { press }`, nil)
	if res.HasErrors() {
		t.Fatal(res.Errors)
	}
	if got := res.Data.(map[string]interface{})["press"]; got != "recording" {
		t.Fatal("unexpected state after press", got)
	}

	res = s.Query(`mutation { reset }`, nil)
	if !res.HasErrors() {
		t.Fatal("expected reset to fail while recording")
	}
	if rec.state != app.OnRecording {
		t.Fatal("failed reset changed the state")
	}

	s.Query(`mutation { press }`, nil)
	res = s.Query(`mutation { reset }`, nil)
	if res.HasErrors() {
		t.Fatal(res.Errors)
	}
	if rec.state != app.BeforeRecording {
		t.Fatal("expected idle after reset, got", rec.state)
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return out.Data
}

func postJSON(body string) *http.Request {
	r := httptest.NewRequest("POST", "/api/v2/graphql", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	return r
}

func TestHandler(t *testing.T) {
	rec := new(fakeRecorder)
	h := newServer(t, rec, nil).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/graphql?query="+url.QueryEscape("{ state }"), nil))
	if d := decode(t, w); d["state"] != "idle" {
		t.Fatal("unexpected response", d)
	}

	w = httptest.NewRecorder()
	body := `{"query": "mutation { press }"}`
	h.ServeHTTP(w, postJSON(body))
	if d := decode(t, w); d["press"] != "recording" {
		t.Fatal("unexpected response", d)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v2/graphql", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatal("expected POST to be required, got", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, postJSON("{"))
	if w.Code != http.StatusBadRequest {
		t.Fatal("expected a bad request, got", w.Code)
	}
}

func TestHandlerRejectsCrossSiteMutations(t *testing.T) {
	rec := new(fakeRecorder)
	h := newServer(t, rec, nil).Handler()

	for _, q := range []string{"mutation { press }", "mutation{press}", "query A { state } mutation B { press }"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/graphql?query="+url.QueryEscape(q), nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%q: expected GET mutations to be refused, got %d", q, w.Code)
		}
	}
	if rec.state != app.BeforeRecording {
		t.Fatal("a GET request changed the state to", rec.state)
	}

	for _, ct := range []string{"text/plain", "application/x-www-form-urlencoded", ""} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/v2/graphql", strings.NewReader(`{"query":"mutation{press}"}`))
		if ct != "" {
			r.Header.Set("Content-Type", ct)
		}
		h.ServeHTTP(w, r)
		if w.Code != http.StatusUnsupportedMediaType {
			t.Errorf("%q: expected the POST to be refused, got %d", ct, w.Code)
		}
	}
	if rec.state != app.BeforeRecording {
		t.Fatal("a non-JSON POST changed the state to", rec.state)
	}
}
