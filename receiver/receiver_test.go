package receiver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReceiver_Caption(t *testing.T) {
	var got []string
	h := New(func(text string) { got = append(got, text) }, nil)

	rec := serve(h, http.MethodPost, "/caption", "  it is raining \n")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}
	if len(got) != 1 || got[0] != "it is raining" {
		t.Fatalf("received: got %q", got)
	}
}

func TestReceiver_EmptyBodyIgnored(t *testing.T) {
	called := false
	h := New(func(string) { called = true }, nil)

	rec := serve(h, http.MethodPost, "/caption", "   ")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}
	if called {
		t.Error("onText called for empty body")
	}
}

func TestReceiver_InvalidUTF8Dropped(t *testing.T) {
	var got string
	h := New(func(text string) { got = text }, nil)

	serve(h, http.MethodPost, "/caption", "caf\xffe")
	if got != "cafe" {
		t.Errorf("received: got %q, want %q", got, "cafe")
	}
}

func TestReceiver_UnknownPath(t *testing.T) {
	h := New(func(string) { t.Error("onText called") }, nil)

	rec := serve(h, http.MethodPost, "/other", "hello")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestReceiver_WrongMethod(t *testing.T) {
	h := New(func(string) { t.Error("onText called") }, nil)

	rec := serve(h, http.MethodGet, "/caption", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}

func TestReceiver_OversizeBodyRejected(t *testing.T) {
	h := New(func(string) { t.Error("onText called for oversize body") }, nil)

	rec := serve(h, http.MethodPost, "/caption", strings.Repeat("a", maxBody+1))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", rec.Code)
	}
}

func TestReceiver_BodyAtLimitAccepted(t *testing.T) {
	var got string
	h := New(func(text string) { got = text }, nil)

	body := strings.Repeat("a", maxBody)
	rec := serve(h, http.MethodPost, "/caption", body)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}
	if got != body {
		t.Errorf("received %d bytes, want %d", len(got), len(body))
	}
}
