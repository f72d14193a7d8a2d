// Package projects is the project store used by bootstrap and the HTTP API.
//
// Service wraps store.Store with the three creation entry points a bootstrap
// can end in (empty, from an imported bundle, from a repository) and the
// lookups used to resume a repository project and list a user's projects.
// Every new project gets a random UUID key and a non-nil library list.
package projects
