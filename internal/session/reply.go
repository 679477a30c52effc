package session

import "sync/atomic"

// Reply is a pending HTTP response for a creation request. At most one of
// the QR callback, the phone-code callback, and the outer creation
// completion may fulfil it; the atomic guard makes every later attempt a
// no-op.
type Reply struct {
	sent atomic.Bool
	done chan struct{}
	fn   func(status int, body any)
}

// NewReply wraps the given write function. fn is invoked at most once.
func NewReply(fn func(status int, body any)) *Reply {
	return &Reply{done: make(chan struct{}), fn: fn}
}

// Send fulfils the reply if no other path got there first. Returns whether
// this call won.
func (r *Reply) Send(status int, body any) bool {
	if r == nil {
		return false
	}
	if !r.sent.CompareAndSwap(false, true) {
		return false
	}
	r.fn(status, body)
	close(r.done)
	return true
}

// Done is closed once the reply has been fulfilled.
func (r *Reply) Done() <-chan struct{} {
	return r.done
}

// Sent reports whether the reply has already been fulfilled.
func (r *Reply) Sent() bool {
	if r == nil {
		return true
	}
	return r.sent.Load()
}
