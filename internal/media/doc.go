// Package media negotiates the call's media session with pion/webrtc.
//
// The signaling layer treats offers and answers as opaque strings; this
// package produces and consumes them. Candidates are gathered completely
// before an offer or answer is returned, so one call/connected round trip is
// enough to set up the session.
package media
