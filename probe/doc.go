// Package probe implements a command line tool that seeds credentials,
// fires concurrent requests through the authenticated client and reports
// each outcome, including the session-ended broadcast when refresh fails.
package probe
