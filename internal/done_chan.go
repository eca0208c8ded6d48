package internal

import "sync"

// DoneChan closes once the background work it represents has finished.
// rpc.Server.Stop and client.Consumer.Stop both block on one to know
// when their accept loop or dispatch pool has actually drained.
type DoneChan chan struct{}

// DoneFunc starts the shutdown of a running component and returns the
// DoneChan that closes once it has fully stopped. LifecycleBase.TryStop
// takes one so each embedder (the manager's reaper, a Consumer, an rpc
// Server) supplies its own teardown without TryStop knowing its shape.
type DoneFunc func() DoneChan

// wrapWaitGroup adapts a sync.WaitGroup to a DoneChan, letting
// WorkerPool.Stop report completion of its dispatch goroutines through
// the same signal TimerTask and LifecycleBase already use.
func wrapWaitGroup(wg *sync.WaitGroup) DoneChan {
	ret := make(DoneChan)
	go func() {
		wg.Wait()
		close(ret)
	}()
	return ret
}

// Combine returns a DoneChan that closes once both first and second
// have. client.Consumer.doStop uses this to wait for its poll loop and
// its WorkerPool to drain before Stop returns.
func Combine(first DoneChan, second DoneChan) DoneChan {
	ret := make(DoneChan)
	go func() {
		<-first
		<-second
		close(ret)
	}()
	return ret
}
