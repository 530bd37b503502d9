// Package contacts holds the open database in memory: settings, the contact
// book and the call history.
//
// Reachability state and the last working address are updated concurrently by
// the signaling server, the liveness checker and outgoing calls; they live only
// in memory. Adding, removing or blocking a contact and recording a call are
// written through to the store.
package contacts
