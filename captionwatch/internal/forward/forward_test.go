package forward

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type capture struct {
	mu     sync.Mutex
	bodies []string
	ctypes []string
	got    chan struct{}
}

func newCapture() *capture {
	return &capture{got: make(chan struct{}, 16)}
}

func (c *capture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.bodies = append(c.bodies, r.Method+" "+r.URL.Path+" "+string(body))
	c.ctypes = append(c.ctypes, r.Header.Get("Content-Type"))
	c.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
	c.got <- struct{}{}
}

func (c *capture) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for request %d", i+1)
		}
	}
}

func TestHTTP_PostsPlainText(t *testing.T) {
	c := newCapture()
	srv := httptest.NewServer(c)
	defer srv.Close()

	h := NewHTTP(srv.URL + "/caption")
	defer h.Close()

	h.Send("it is raining")
	c.wait(t, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bodies[0] != "POST /caption it is raining" {
		t.Errorf("request: got %q", c.bodies[0])
	}
	if c.ctypes[0] != "text/plain" {
		t.Errorf("Content-Type: got %q, want text/plain", c.ctypes[0])
	}
}

func TestHTTP_SendDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	h := NewHTTP(srv.URL, WithTimeout(time.Second))

	start := time.Now()
	h.Send("slow consumer")
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Errorf("Send blocked for %v", d)
	}
	h.Close()
}

func TestHTTP_UnreachableIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := NewHTTP(url, WithTimeout(500*time.Millisecond))
	h.Send("nobody listening")
	if err := h.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestHTTP_DefaultEndpoint(t *testing.T) {
	h := NewHTTP("")
	defer h.Close()
	if h.URL() != DefaultEndpoint {
		t.Errorf("URL: got %q, want %q", h.URL(), DefaultEndpoint)
	}
}

func TestHTTP_SendAfterCloseIsDropped(t *testing.T) {
	c := newCapture()
	srv := httptest.NewServer(c)
	defer srv.Close()

	h := NewHTTP(srv.URL)
	h.Close()
	h.Send("late")

	select {
	case <-c.got:
		t.Error("request issued after Close")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHTTP_PreservesSendOrder(t *testing.T) {
	const n = 200
	got := make(chan string, n)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, WithQueueSize(n))
	defer h.Close()

	var want []string
	for i := 0; i < n/2; i++ {
		want = append(want, "it is", fmt.Sprintf("it is raining %d", i))
	}
	for _, text := range want {
		h.Send(text)
	}

	for i, w := range want {
		select {
		case body := <-got:
			if body != w {
				t.Fatalf("request %d: got %q, want %q", i, body, w)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for request %d", i)
		}
	}
}

func TestHTTP_FullQueueDropsOldest(t *testing.T) {
	h := &HTTP{queue: make(chan string, 3), logger: slog.Default()}
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		h.enqueue(text)
	}

	var kept []string
	for len(h.queue) > 0 {
		kept = append(kept, <-h.queue)
	}
	if strings.Join(kept, ",") != "c,d,e" {
		t.Errorf("queue: got %v, want [c d e]", kept)
	}
}

func TestMultiAndStdout(t *testing.T) {
	var buf bytes.Buffer
	var seen []string
	m := Multi{
		NewStdout(&buf, nil),
		Func(func(text string) { seen = append(seen, text) }),
	}

	m.Send("one")
	m.Send("two")

	if buf.String() != "one\ntwo\n" {
		t.Errorf("stdout: got %q", buf.String())
	}
	if len(seen) != 2 || seen[1] != "two" {
		t.Errorf("func: got %v", seen)
	}
}
