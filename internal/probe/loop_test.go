package probe

import (
	"testing"
	"time"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	loop := NewLoop()
	go loop.Run()
	defer loop.Close()

	done := make(chan []int, 1)
	var order []int
	loop.Post(func() {
		order = append(order, 1)
		// A task posted from a task runs after the posting task unwinds.
		loop.Post(func() {
			order = append(order, 3)
			done <- order
		})
		order = append(order, 2)
	})

	select {
	case got := <-done:
		for i, v := range got {
			if v != i+1 {
				t.Fatalf("order = %v, want [1 2 3]", got)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not run posted tasks")
	}
}

func TestLoopPostAfterCloseIsDropped(t *testing.T) {
	loop := NewLoop()
	go loop.Run()
	loop.Close()
	// Must neither panic nor block.
	loop.Post(func() { t.Error("task ran on a closed loop") })
}

func TestLoopCloseIsIdempotent(t *testing.T) {
	loop := NewLoop()
	go loop.Run()
	loop.Close()
	loop.Close()
}
