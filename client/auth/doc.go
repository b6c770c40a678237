// Package auth manages the lifecycle of the credential pair used by the
// authenticated transport: Login populates the store from the login
// endpoint, Logout clears it. Refreshing in between is the job of the
// refresh sub-package, and attaching credentials is the job of transport.
package auth
