// Package client talks HTTP/JSON to the accounts service.
//
// # Overview
//
//  1. Transport is the single outbound path. It attaches the stored access
//     token, stamps every request with an X-Request-ID, classifies failures
//     into *Error, and sends 401 responses through the shared refresh
//     Coordinator so that concurrent requests trigger one refresh and are
//     replayed in arrival order.
//  2. Client is the accounts API contract; AccountsClient implements it over
//     a Transport and retries idempotent reads with Retry.
//
// # Error Handling
//
// Every failed call returns *Error. Match kinds with errors.Is against
// ErrNetwork, ErrUnauthorized, ErrForbidden, ErrServer, ErrClientRequest or
// ErrUnknown. An unauthorized error reaches the caller only after the
// refresh failed; it then also matches refresh.ErrSessionExpired.
// UserMessage maps errors to text for end users.
//
// # Construction
//
// The transports and the session depend on each other, so wiring happens in
// two steps:
//
//	coord := client.NewCoordinator(store, accountsURL, nil)
//	t := client.NewTransport(accountsURL, store, coord)
//	sess := session.New(store, ...)
//	t.SetAuthFailureHandler(sess.HandleAuthFailure)
package client
