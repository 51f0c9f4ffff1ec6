// Package admission provides optional admission control for the pathhint
// listener: a cap on concurrently open connections and a limit on the
// accept rate. It wraps a net.Listener, so the server itself stays
// unbounded and unaware of it. Both limits are off unless configured.
package admission
