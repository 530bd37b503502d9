// Package signaling carries the call-signaling vocabulary over an encrypted,
// length-prefixed stream.
//
// Every frame is a JSON object with an "action" key, sealed with
// crypto.Seal for the peer. A Channel binds the peer key: on the dialing side
// it is the contact's recorded key, on the accepting side it is the sender
// recovered from the first frame. Any later frame from a different sender
// fails with ErrAuthentication.
package signaling
