// Package identity manages creation and loading of the local key pair.
//
// The pair lives in the database settings, so it is protected by the same
// passphrase as the contacts. A non-empty passphrase must pass the strength
// policy; an empty one stores the database in the clear.
package identity
