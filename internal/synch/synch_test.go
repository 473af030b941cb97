package synch

import (
	"testing"
	"time"

	"osteach/internal/defs"
)

func TestSemaphoreBlocksUntilV(t *testing.T) {
	s := MkSemaphore(0)
	done := make(chan struct{})
	go func() {
		s.P()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("P returned before V")
	case <-time.After(20 * time.Millisecond):
	}

	s.V()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("P never returned after V")
	}
}

func TestLockOwnerInvariant(t *testing.T) {
	l := MkLock()
	const tid1, tid2 defs.Tid_t = 1, 2

	l.Acquire(tid1)
	if !l.Holds(tid1) {
		t.Fatal("holder mismatch after acquire")
	}
	// release by the wrong tid is a no-op
	l.Release(tid2)
	if !l.Holds(tid1) {
		t.Fatal("release by non-owner released the lock")
	}
	l.Release(tid1)
	if l.Holds(tid1) {
		t.Fatal("lock still held after release")
	}

	l.Acquire(tid2)
	if !l.Holds(tid2) {
		t.Fatal("second acquire did not record new owner")
	}
}

func TestCvLostSignalIsLost(t *testing.T) {
	cv := MkCv()
	// signalling with no waiter must not panic or block.
	cv.Signal()
	cv.Broadcast()
}

func TestCvWaitReacquiresLock(t *testing.T) {
	l := MkLock()
	cv := MkCv()
	const tid defs.Tid_t = 1

	l.Acquire(tid)
	woke := make(chan struct{})
	go func() {
		l.Acquire(2)
		cv.Wait(l, 2)
		if !l.Holds(2) {
			t.Error("Wait returned without reacquiring lock")
		}
		l.Release(2)
		close(woke)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Release(tid)
	time.Sleep(20 * time.Millisecond)
	cv.Signal()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}
}
