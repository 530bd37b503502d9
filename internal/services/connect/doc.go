// Package connect establishes one outbound stream to a contact by trying its
// candidate addresses in order.
//
// Each attempt has its own timeout and the whole run is bounded by
// candidates × timeout. When every attempt fails the error is a *ConnectError
// whose Class is the strongest failure observed, by the precedence
//
//	refused > unresolvable host > other > timeout > no candidates
//
// so that "the port is closed" wins over "nothing answered".
package connect
