package captionwatch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"github.com/hazyhaar/captionbridge/captionwatch/internal/pipeline"
)

func TestRun_InvalidSelector(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Caption.Container = "div > span"

	err := New(cfg, nil).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "container selector") {
		t.Fatalf("Run: got %v, want container selector error", err)
	}
}

func TestRun_LockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "captionbridge.lock")
	cfg := DefaultConfig()
	cfg.LockFile = path

	w := New(cfg, nil)
	unlock, err := w.lock()
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	defer unlock()

	other := flock.New(path)
	ok, err := other.TryLock()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		other.Unlock()
		t.Fatal("second lock acquired while first held")
	}

	if err := New(cfg, nil).Run(context.Background()); !errors.Is(err, ErrLocked) {
		t.Fatalf("Run: got %v, want ErrLocked", err)
	}
}

func TestLock_Disabled(t *testing.T) {
	unlock, err := New(DefaultConfig(), nil).lock()
	if err != nil {
		t.Fatal(err)
	}
	unlock()
}

func TestStats_BeforeRun(t *testing.T) {
	if st := New(nil, nil).Stats(); st.Forwarded != 0 || st.Binds != 0 {
		t.Errorf("Stats before Run: %+v", st)
	}
}

func TestStats_ConcurrentWithPipelineStart(t *testing.T) {
	w := New(nil, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = w.Stats()
		}
	}()
	w.pipe.Store(pipeline.New(pipeline.Config{}))
	wg.Wait()

	if st := w.Stats(); st.State != pipeline.Unattached {
		t.Errorf("State: got %s, want unattached", st.State)
	}
}
