// Package app wires application dependencies for the CLI.
//
// Config is read from YAML, then overridden by any flags the user set. Wire
// builds the passphrase-independent pieces (store, identity). Open unlocks
// the database and builds everything that needs the identity: the contact
// book, the establisher, the call manager, the liveness checker and the
// signaling server.
package app
