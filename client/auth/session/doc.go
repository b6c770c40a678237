// Package session provides the process-wide broadcast used to announce that
// the authenticated session has ended (the refresh credential is missing or
// was rejected). Subscribers, typically the owner of application level
// identity, react by dropping cached identity and returning to a login
// surface. The authentication plumbing never knows who listens.
package session
