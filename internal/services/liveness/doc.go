// Package liveness classifies how reachable each contact is.
//
// A contact whose host refuses the connection is PENDING, one that cannot be
// reached at all is OFFLINE, one that answers ping with pong on an
// authenticated channel is ONLINE, and anything else that answers is BROKEN.
// Contacts are checked concurrently and independently; a sweep writes all
// results back at once and then emits exactly one notification.
package liveness
