// Package server implements the pathhint TCP listener.
//
// The Server binds a listening socket and runs an accept loop that hands
// every connection to its own goroutine. Each connection goes through
// Reading, Resolving, Responding and Closed: one request line is read,
// the path is resolved against an immutable route table, one
// HTTP/1.1-shaped response is written and the connection is closed.
//
// There is no connection limit and no read or write timeout. A silent
// client keeps its goroutine until it disconnects. Admission control, if
// wanted, is added by wrapping the listener (see WithListenerWrapper).
package server
