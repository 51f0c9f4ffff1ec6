// Package util provides utility functions and types shared by the
// pathhint listener.
//
// # Context Helpers
//
// Context utilities for connection-scoped data:
//
//	ctx = util.ContextWithConnectionID(ctx, id)
//	id := util.ConnectionIDFromContext(ctx)
//
// # Error Types
//
// Structured error types follow the failure taxonomy of the listener:
//
//   - BindError: the listening socket could not be bound (fatal)
//   - AcceptError: a single accept failed (transient)
//   - ReadError: the request could not be read (connection dropped)
//   - HandlerError: a route handler failed or panicked (500 response)
//   - WriteError: the response could not be written (connection closed)
//   - ConfigError: configuration problems
//
// # Validation
//
// Input validation helpers for addresses and URLs:
//
//	err := util.ValidateHostPort("127.0.0.1:7878")
//	err := util.ValidateRedirectLocation("/about")
package util
