package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusWriter(t *testing.T) {
	w := httptest.NewRecorder()
	sw := &StatusWriter{ResponseWriter: w, Code: 200}

	sw.WriteHeader(http.StatusNotFound)
	if sw.Code != http.StatusNotFound {
		t.Errorf("expected Code 404, got %d", sw.Code)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("expected recorded code 404, got %d", w.Code)
	}

	// Test default code
	w2 := httptest.NewRecorder()
	sw2 := &StatusWriter{ResponseWriter: w2, Code: 200}
	sw2.Write([]byte("ok"))
	if sw2.Code != 200 {
		t.Errorf("expected default code 200, got %d", sw2.Code)
	}
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}
	JSON(w, http.StatusCreated, data)

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type application/json, got %q", ct)
	}
	expectedBody := `{"foo":"bar"}` + "\n"
	if w.Body.String() != expectedBody {
		t.Errorf("expected body %q, got %q", expectedBody, w.Body.String())
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	err := fmt.Errorf("bad request")
	Error(w, http.StatusBadRequest, err)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	expectedBody := `{"code":"error","error":"bad request"}` + "\n"
	if w.Body.String() != expectedBody {
		t.Errorf("expected body %q, got %q", expectedBody, w.Body.String())
	}
}

func TestSSEStart(t *testing.T) {
	w := httptest.NewRecorder()
	SSEStart(w)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected content-type text/event-stream, got %q", ct)
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestSSEEvent(t *testing.T) {
	w := httptest.NewRecorder()
	if err := SSEEvent(w, map[string]string{"type": "start"}); err != nil {
		t.Fatal(err)
	}
	if err := SSEEvent(w, map[string]string{"type": "done"}); err != nil {
		t.Fatal(err)
	}

	body := w.Body.String()
	want := "data: {\"type\":\"start\"}\n\ndata: {\"type\":\"done\"}\n\n"
	if body != want {
		t.Errorf("expected body %q, got %q", want, body)
	}
	if !w.Flushed {
		t.Error("expected writer to be flushed after each event")
	}
	if strings.Count(body, "data: ") != 2 {
		t.Errorf("expected 2 data frames, got %d", strings.Count(body, "data: "))
	}
}
