// Package client contains the HTTP client of the FireStation auth API.
//
// # Overview
//
// The package provides:
//  1. A transport contract (see the Client interface) used by the session
//     layer: Login, Me and SetDefaultAuthorization.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient) rooted at a
//     configurable base URL, with request and failure interceptor hooks.
//     The session layer installs its interceptors at startup to attach the
//     bearer credential and to react to failures.
//
// # Error Handling
//
// Failures are classified so callers can tell "server down" from
// "credential rejected" with errors.Is:
//   - ErrNoResponse: no HTTP response (transport error, timeout). It also
//     matches ErrUnavailable.
//   - *StatusError with status >= 500 matches ErrUnavailable.
//   - *StatusError with status 401 or 403 matches ErrUnauthorized.
//   - Any other *StatusError matches neither; use StatusCode to inspect it.
//
// Every request carries an X-Request-ID header used in debug logs.
package client
