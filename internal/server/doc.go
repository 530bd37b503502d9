// Package server accepts signaling connections on the service port.
//
// Every accepted connection gets its own goroutine, which reads one frame,
// recovers the sender key and applies the contact policy before dispatching
// on the action: call hands the channel to the call manager, ping is answered
// with pong, status_change updates the contact's cached state. On shutdown the
// server tells every contact not known to be offline that it is going away.
package server
