package transcribe_test

import (
	"context"
	"os"
	"sync"
)

type fakeEngine struct {
	mu     sync.Mutex
	texts  map[int]string
	fail   map[int]error
	calls  int
	clips  []string
	sizes  []int64
	langs  []string
	closed int
	block  bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeEngine) Transcribe(ctx context.Context, clip, lang string) (string, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	f.clips = append(f.clips, clip)
	f.langs = append(f.langs, lang)
	if info, err := os.Stat(clip); err == nil {
		f.sizes = append(f.sizes, info.Size())
	} else {
		f.sizes = append(f.sizes, -1)
	}
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err := f.fail[idx]; err != nil {
		return "", err
	}
	return f.texts[idx], nil
}
