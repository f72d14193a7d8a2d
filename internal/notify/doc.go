// ABOUTME: Package notify builds user-facing notifications and records the one a run emits
// ABOUTME: Messages are markdown templates rendered to HTML with goldmark

// Package notify turns outcome tags into displayable notifications.
//
// A Catalog holds one markdown template per tag. Templates reference run
// context with {{gistId}}, {{owner}}, {{name}} and {{url}} placeholders.
// Values are escaped before substitution and raw HTML is never rendered.
//
// A Recorder is the Notifier for a single run: it keeps the first
// notification, persists it and logs any further emission as a defect.
package notify
