// Package packet frames discrete messages over a bidirectional byte stream.
//
// # Wire format
//
// Each message is a 4-byte big-endian length followed by that many payload
// bytes. A zero length or one above MaxSize is malformed.
//
// # Concurrency
//
// Writes are serialized by a mutex so concurrent writers never interleave
// frames. A Conn is meant to have a single reader.
package packet
