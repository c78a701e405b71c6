package canvas

import (
	"context"
	"testing"
	"time"
)

func TestSetNotifiesAndRenders(t *testing.T) {
	s := NewSurface()
	calls := 0
	s.SetDirty(func() { calls++ })
	if s.Render() != "" {
		t.Fatalf("expected empty surface")
	}
	s.Set("<3")
	s.Set("<3 <3")
	if s.Render() != "<3 <3" {
		t.Fatalf("unexpected frame %q", s.Render())
	}
	if calls != 2 || s.Frames() != 2 {
		t.Fatalf("expected 2 notifications, got %d (frames %d)", calls, s.Frames())
	}
}

func TestWaitFrame(t *testing.T) {
	s := NewSurface()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if s.WaitFrame(ctx) {
		t.Fatalf("expected wait to time out without frames")
	}

	go s.Set("x")
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if !s.WaitFrame(ctx2) {
		t.Fatalf("expected first frame to unblock wait")
	}
}
