// Package cli provides the interactive FireStation terminal client.
//
// It wires configuration, local storage, the API client, the session
// services, the interceptors and the router, then renders the current view
// in a REPL. Typical flow: restore the previous session, check it with the
// server in the background, land on the view the guard allows, and execute
// user commands.
//
// Key features:
//   - Login / Logout
//   - Navigation between views (open <path>), guarded by the session
//   - Retry from the server-error view
//   - Session status and current user
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewApp, App.Bootstrap and runREPL for details.
package cli
