// ABOUTME: Package bootstrap decides the initial project for a page load
// ABOUTME: by reconciling identity resolution with gist or repository import

// Package bootstrap implements the page-load decision procedure.
//
// A Query carries an optional gist id or an optional repository owner and
// name. Run classifies it and drives exactly one terminal project action:
//
//   - both a gist and a repository: emit url-query-error, then resolve
//     identity and create an empty project as if neither were given
//   - gist only: resolve identity and read the gist concurrently, join both,
//     then import the gist or fall back to an empty project
//   - repository only: resolve identity, signing in interactively when there
//     is no session, then import the default branch; a saved project already
//     bound to the repository is resumed instead
//   - neither: resolve identity and create an empty project
//
// Every failure is classified into an outcome tag inside its branch. At most
// one notification and at most one project action are produced per run, and
// Run never returns an error.
package bootstrap
