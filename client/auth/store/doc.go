// Package store defines the credential store used by the authenticated
// request pipeline: one access credential and one refresh credential,
// always written and cleared together.
//
// It ships with an in-memory implementation (the default), a file-backed
// implementation persisted through github.com/viant/afs, and a Redis-backed
// implementation that can be shared by several processes.
package store
