// Package cli implements the gophauth command line.
//
// Each command runs against an App that wires the encrypted token store,
// the request transports with their shared refresh coordinator, the session
// manager and the auth and user services. The App is built once flags are
// parsed, so --config, --data-dir and the other global flags apply to every
// command.
//
// Commands:
//   - login, register: one-time code sign-in with countdown and resend
//   - logout: best-effort server logout, then local teardown
//   - whoami, status, refresh: inspect or renew the session
//   - profiles, profiles complete: list profiles or finish onboarding
//
// Execute returns an exit code: 0 on success, 2 when a session is required
// or has expired, 3 when sign-in failed and 1 otherwise.
package cli
