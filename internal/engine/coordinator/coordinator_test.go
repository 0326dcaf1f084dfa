package coordinator_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/coordinator"
)

func TestCoordinator_NonConflictingRulesRunTogether(t *testing.T) {
	c := coordinator.New(4)

	a, err := c.Acquire(t.Context(), domain.ProjectRule("a"))
	require.NoError(t, err)
	b, err := c.Acquire(t.Context(), domain.ProjectRule("b"))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Running())
	assert.Equal(t, 2, c.Peak())

	a.Release()
	b.Release()
	assert.Equal(t, 0, c.Running())
	assert.Equal(t, 2, c.Peak())
}

func TestCoordinator_ConflictingRuleWaits(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := coordinator.New(4)

		first, err := c.Acquire(t.Context(), domain.WorkspaceRule())
		require.NoError(t, err)

		acquired := make(chan *coordinator.Lease)
		go func() {
			l, err := c.Acquire(context.Background(), domain.ProjectRule("a"))
			if err == nil {
				acquired <- l
			}
		}()

		synctest.Wait()
		select {
		case <-acquired:
			t.Fatal("conflicting rule must not be admitted while the workspace rule is held")
		default:
		}

		first.Release()
		second := <-acquired
		assert.Equal(t, 1, c.Peak())
		second.Release()
	})
}

func TestCoordinator_LimitCapsConcurrency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := coordinator.New(1)

		first, err := c.Acquire(t.Context(), nil)
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			l, err := c.Acquire(context.Background(), nil)
			if err == nil {
				l.Release()
			}
			close(done)
		}()

		synctest.Wait()
		assert.Equal(t, 1, c.Running())

		first.Release()
		<-done
		assert.Equal(t, 1, c.Peak())
	})
}

func TestCoordinator_GroupsKeepTheirOwnLimit(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := coordinator.New(8)
		narrow := c.NewGroup(1)
		wide := c.NewGroup(8)
		assert.Equal(t, 1, narrow.Limit())

		first, err := narrow.Acquire(t.Context(), nil)
		require.NoError(t, err)

		second := make(chan *coordinator.Lease)
		go func() {
			l, err := narrow.Acquire(context.Background(), nil)
			if err == nil {
				second <- l
			}
		}()

		// A wider group admits its units without lifting the narrow cap.
		var others []*coordinator.Lease
		for range 3 {
			l, err := wide.Acquire(t.Context(), nil)
			require.NoError(t, err)
			others = append(others, l)
		}
		synctest.Wait()
		select {
		case <-second:
			t.Fatal("narrow group must not exceed its limit")
		default:
		}
		assert.Equal(t, 4, c.Running())

		first.Release()
		(<-second).Release()
		for _, l := range others {
			l.Release()
		}
		assert.Zero(t, c.Running())
	})
}

func TestCoordinator_GroupsShareRules(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := coordinator.New(8)
		held, err := c.NewGroup(8).Acquire(t.Context(), domain.WorkspaceRule())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()
		_, err = c.NewGroup(8).Acquire(ctx, domain.ProjectRule("a"))
		require.ErrorIs(t, err, context.DeadlineExceeded)

		held.Release()
	})
}

func TestCoordinator_RelaxedRuleOnlyConflictsWithWorkspace(t *testing.T) {
	c := coordinator.New(8)

	p, err := c.Acquire(t.Context(), domain.ProjectRule("a"))
	require.NoError(t, err)
	relaxed, err := c.Acquire(t.Context(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Acquire(ctx, domain.WorkspaceRule())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	p.Release()
	relaxed.Release()
}

func TestCoordinator_AcquireHonorsCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := coordinator.New(1)
		held, err := c.Acquire(t.Context(), domain.WorkspaceRule())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		errCh := make(chan error, 1)
		go func() {
			_, err := c.Acquire(ctx, domain.WorkspaceRule())
			errCh <- err
		}()

		synctest.Wait()
		cancel()
		require.ErrorIs(t, <-errCh, context.Canceled)
		assert.Equal(t, 1, c.Running())

		held.Release()
		held.Release()
		assert.Equal(t, 0, c.Running())
	})
}

func TestCoordinator_RunningObserver(t *testing.T) {
	var counts []int
	c := coordinator.New(2, coordinator.WithRunningObserver(func(n int) {
		counts = append(counts, n)
	}))

	l, err := c.Acquire(t.Context(), nil)
	require.NoError(t, err)
	l.Release()

	assert.Equal(t, []int{1, 0}, counts)
}
