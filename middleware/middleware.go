package middleware

import (
	"log"
	"sync/atomic"

	"github.com/cmsd2/woot/communication"
	"github.com/cmsd2/woot/utils"
)

// Middleware moves operations between the sites of one process over
// per-site channels. There is no ordering machinery here: the replica's
// pending pool tolerates arbitrary delivery order, so the middleware only
// transports, and tests are free to delay or shuffle what it carries.
//
// A receive goroutine parks incoming operations in an inbox queue; the
// host thread that owns the replica empties the inbox with Pending and
// feeds the replica itself, keeping every entry into the replica
// serialised.
type Middleware struct {
	site     uint64
	channels map[uint64]chan communication.Operation
	inbox    *utils.Queue
	sent     atomic.Uint64
	received atomic.Uint64
	verbose  bool
}

// New wires a middleware for site into the shared channel map and starts
// its receive loop. The channel map must contain an entry for site; the
// caller owns the channels and closes them to stop the loop.
func New(site uint64, channels map[uint64]chan communication.Operation) *Middleware {
	mw := &Middleware{
		site:     site,
		channels: channels,
		inbox:    utils.NewQueue(),
	}
	go mw.receive()
	return mw
}

// SetVerbose turns per-operation logging on or off.
func (mw *Middleware) SetVerbose(v bool) {
	mw.verbose = v
}

// Broadcast fans op out to every other site. Sends run in their own
// goroutines so a slow receiver never blocks the caller.
func (mw *Middleware) Broadcast(op communication.Operation) {
	for site, ch := range mw.channels {
		if site == mw.site {
			continue
		}
		go func(ch chan communication.Operation) { ch <- op }(ch)
	}
	mw.sent.Add(1)
	if mw.verbose {
		log.Printf("[site %d] broadcast %v", mw.site, op)
	}
}

// Pending empties the inbox: every operation received since the last
// call, in arrival order.
func (mw *Middleware) Pending() []communication.Operation {
	return mw.inbox.DrainAll()
}

// Inbox reports how many received operations await collection.
func (mw *Middleware) Inbox() int {
	return mw.inbox.Len()
}

// Sent counts operations broadcast from this site; Received counts
// operations that have arrived, collected or not. Together they let a
// host decide when the whole fleet is quiescent.
func (mw *Middleware) Sent() uint64 {
	return mw.sent.Load()
}

func (mw *Middleware) Received() uint64 {
	return mw.received.Load()
}

func (mw *Middleware) receive() {
	for op := range mw.channels[mw.site] {
		if mw.verbose {
			log.Printf("[site %d] received %v", mw.site, op)
		}
		mw.inbox.Enqueue(op)
		mw.received.Add(1)
	}
}
