package autobuild_test

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/autobuild"
	"go.trai.ch/kiln/internal/engine/cycle"
	"go.uber.org/mock/gomock"
)

const delay = 100 * time.Millisecond

// recorder is a RunFunc that drives the cycle controller the way the
// scheduler does, running pass until the controller asks for no more.
type recorder struct {
	mu          sync.Mutex
	invocations []domain.InvocationID
	passes      int
	pass        func(ctx context.Context, id domain.InvocationID) error
	done        func(id domain.InvocationID)
}

func (r *recorder) run(ctx context.Context, id domain.InvocationID, ctl *cycle.Controller) error {
	r.mu.Lock()
	r.invocations = append(r.invocations, id)
	r.mu.Unlock()

	for {
		r.mu.Lock()
		r.passes++
		r.mu.Unlock()

		var err error
		if r.pass != nil {
			err = r.pass(ctx, id)
		}
		if !ctl.End(ctx.Err() == nil) {
			if r.done != nil {
				r.done(id)
			}
			return err
		}
	}
}

func (r *recorder) counts() (invocations, passes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.invocations), r.passes
}

func setupJobTest(t *testing.T, r *recorder) (*autobuild.Job, *domain.Settings) {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	settings := &domain.Settings{
		MaxConcurrentBuilds: 1,
		MaxBuildIterations:  10,
		AutoBuildDelay:      delay,
		AutoBuilding:        true,
	}
	var mu sync.Mutex
	job := autobuild.New(r.run, func() domain.Settings {
		mu.Lock()
		defer mu.Unlock()
		return *settings
	}, logger)
	t.Cleanup(job.Close)
	return job, settings
}

func TestJob_CoalescesNotifications(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := &recorder{}
		job, _ := setupJobTest(t, r)

		job.Notify(0)
		time.Sleep(delay / 2)
		job.Notify(0)
		job.Notify(0)
		assert.True(t, job.Busy())

		synctest.Wait()
		invocations, _ := r.counts()
		assert.Zero(t, invocations)

		time.Sleep(delay)
		synctest.Wait()

		invocations, passes := r.counts()
		assert.Equal(t, 1, invocations)
		assert.Equal(t, 1, passes)
		assert.False(t, job.Busy())
	})
}

func TestJob_FirstNotificationArmsTheTimer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := &recorder{}
		job, _ := setupJobTest(t, r)

		// Later notifications do not postpone the build.
		for range 3 {
			job.Notify(0)
			time.Sleep(30 * time.Millisecond)
		}
		synctest.Wait()
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()

		invocations, _ := r.counts()
		assert.Equal(t, 1, invocations)
	})
}

func TestJob_SelfNotificationsAreIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := &recorder{}
		job, _ := setupJobTest(t, r)
		r.pass = func(_ context.Context, id domain.InvocationID) error {
			job.Notify(id)
			return nil
		}

		job.Notify(0)
		time.Sleep(delay * 10)
		synctest.Wait()

		invocations, passes := r.counts()
		assert.Equal(t, 1, invocations)
		assert.Equal(t, 1, passes)
	})
}

func TestJob_ForeignNotificationAddsOnePass(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := &recorder{}
		job, _ := setupJobTest(t, r)
		first := true
		r.pass = func(context.Context, domain.InvocationID) error {
			if first {
				first = false
				job.Notify(0)
				job.Notify(domain.NewInvocationID())
			}
			time.Sleep(10 * time.Millisecond)
			return nil
		}

		job.Notify(0)
		time.Sleep(delay * 10)
		synctest.Wait()

		invocations, passes := r.counts()
		assert.Equal(t, 1, invocations)
		assert.Equal(t, 2, passes)
	})
}

func TestJob_NotificationAfterLastPassStartsNewInvocation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := &recorder{}
		job, _ := setupJobTest(t, r)
		// The change races with the end of the invocation: the controller is
		// closed but the invocation has not returned yet.
		r.done = func(domain.InvocationID) {
			if inv, _ := r.counts(); inv == 1 {
				job.Notify(0)
			}
		}

		job.Notify(0)
		time.Sleep(delay * 5)
		synctest.Wait()

		invocations, passes := r.counts()
		assert.Equal(t, 2, invocations)
		assert.Equal(t, 2, passes)
		require.NoError(t, job.Wait(time.Second))
	})
}

func TestJob_AutoBuildingDisabled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := &recorder{}
		job, settings := setupJobTest(t, r)
		settings.AutoBuilding = false

		job.Notify(0)
		assert.False(t, job.Busy())
		time.Sleep(delay * 2)
		synctest.Wait()

		invocations, _ := r.counts()
		assert.Zero(t, invocations)
	})
}

func TestJob_Wait(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			job, _ := setupJobTest(t, &recorder{})
			require.NoError(t, job.Wait(time.Second))
		})
	})

	t.Run("waits for the invocation", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			r := &recorder{pass: func(context.Context, domain.InvocationID) error {
				time.Sleep(time.Second)
				return nil
			}}
			job, _ := setupJobTest(t, r)

			job.Notify(0)
			start := time.Now()
			require.NoError(t, job.Wait(time.Minute))
			assert.Equal(t, delay+time.Second, time.Since(start))
		})
	})

	t.Run("times out", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			r := &recorder{pass: func(ctx context.Context, _ domain.InvocationID) error {
				<-ctx.Done()
				return ctx.Err()
			}}
			job, _ := setupJobTest(t, r)

			job.Notify(0)
			start := time.Now()
			err := job.Wait(time.Second)
			require.ErrorIs(t, err, domain.ErrWaitTimeout)
			assert.Equal(t, time.Second, time.Since(start))
		})
	})

	t.Run("fails fast when suspended", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			r := &recorder{}
			job, _ := setupJobTest(t, r)

			job.Suspend()
			job.Notify(0)
			start := time.Now()
			err := job.Wait(time.Hour)
			require.ErrorIs(t, err, domain.ErrSchedulerSuspended)
			assert.Zero(t, time.Since(start))

			job.Resume()
			require.NoError(t, job.Wait(time.Hour))
			invocations, _ := r.counts()
			assert.Equal(t, 1, invocations)
		})
	})
}

func TestJob_SuspendHoldsPendingWork(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := &recorder{}
		job, _ := setupJobTest(t, r)

		job.Notify(0)
		job.Suspend()
		assert.True(t, job.Suspended())
		time.Sleep(delay * 5)
		synctest.Wait()

		invocations, _ := r.counts()
		assert.Zero(t, invocations)
		assert.True(t, job.Busy())

		job.Resume()
		time.Sleep(delay * 2)
		synctest.Wait()

		invocations, _ = r.counts()
		assert.Equal(t, 1, invocations)
		assert.False(t, job.Busy())
	})
}

func TestJob_StaleTimerCallbackIsIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := &recorder{}
		job, _ := setupJobTest(t, r)

		job.Notify(0)
		stale := job.Generation()
		job.Suspend()
		job.Resume()
		require.NotEqual(t, stale, job.Generation())

		// The callback of the first timer lost the race with Suspend.
		job.Fire(stale)
		synctest.Wait()
		invocations, _ := r.counts()
		assert.Zero(t, invocations)
		assert.True(t, job.Busy())

		// The timer armed by Resume still waits for the full delay.
		time.Sleep(delay - time.Millisecond)
		synctest.Wait()
		invocations, _ = r.counts()
		assert.Zero(t, invocations)

		time.Sleep(time.Millisecond)
		synctest.Wait()
		invocations, _ = r.counts()
		assert.Equal(t, 1, invocations)
		assert.False(t, job.Busy())
	})
}

func TestJob_CloseCancelsRunningInvocation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		canceled := make(chan struct{})
		r := &recorder{pass: func(ctx context.Context, _ domain.InvocationID) error {
			<-ctx.Done()
			close(canceled)
			return ctx.Err()
		}}
		job, _ := setupJobTest(t, r)

		job.Notify(0)
		time.Sleep(delay * 2)
		synctest.Wait()
		require.True(t, job.Busy())

		job.Close()
		<-canceled
		assert.False(t, job.Busy())

		job.Notify(0)
		assert.False(t, job.Busy())
	})
}
