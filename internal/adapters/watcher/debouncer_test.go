package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/watcher"
)

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) add(paths []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, paths)
}

func (b *batches) all() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.got...)
}

func TestDebouncer_CoalescesAndDeduplicates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		b := &batches{}
		d := watcher.NewDebouncer(100*time.Millisecond, b.add)

		d.Add("/ws/app/b.go")
		d.Add("/ws/app/a.go")
		d.Add("/ws/app/b.go")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, [][]string{{"/ws/app/a.go", "/ws/app/b.go"}}, b.all())
	})
}

func TestDebouncer_EveryEventRestartsTheWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		b := &batches{}
		d := watcher.NewDebouncer(100*time.Millisecond, b.add)

		d.Add("/ws/a")
		time.Sleep(60 * time.Millisecond)
		d.Add("/ws/b")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, b.all())

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, [][]string{{"/ws/a", "/ws/b"}}, b.all())
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		b := &batches{}
		d := watcher.NewDebouncer(100*time.Millisecond, b.add)

		d.Flush()
		assert.Empty(t, b.all())

		d.Add("/ws/a")
		d.Flush()
		require.Equal(t, [][]string{{"/ws/a"}}, b.all())

		// Nothing is delivered twice once the window passes.
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, b.all(), 1)
	})
}
