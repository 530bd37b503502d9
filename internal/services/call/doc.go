// Package call drives one call through its signaling states and owns the
// process-wide slot that allows at most one active call.
//
// # States
//
//	WAITING -> CONNECTING -> RINGING -> CONNECTED -> DISMISSED | ENDED
//
// Any non-terminal state may also end in DISMISSED or in one of the ERROR_*
// states. Transitions are computed by Next, a pure function over explicit
// events; the Session runs the network and media I/O around it and feeds it
// what happened.
//
// # Outgoing
//
// The media engine produces an offer, the connect service opens a stream, the
// session sends call{offer}, expects ringing within the response timeout, then
// connected{answer} or dismissed within the answer timeout. After CONNECTED it
// keeps listening for dismissed or detach.
//
// # Incoming
//
// The signaling server hands over an authenticated channel and the offer. The
// Manager claims the slot or reports ErrBusy, the session replies ringing and
// waits for Accept or Decline while listening for the caller hanging up.
//
// # Cleanup
//
// Entering a terminal state closes the stream and the media engine exactly
// once and frees the slot. Cleanup may be called from any goroutine, any
// number of times, and waits a bounded grace period for background work.
package call
