// ABOUTME: Package importer turns gists and repository trees into project source bundles
// ABOUTME: and builds the gist payload used when a project is exported

// Package importer extracts the normalized {html, css, javascript,
// enabledLibraries} bundle from an imported gist or repository root.
//
// Only four filenames are recognized: index.html, styles.css, script.js and
// popcode.json. Everything else in the source is ignored. FromGist is pure;
// FromRepoTree fetches the recognized blobs concurrently and fails as a unit.
package importer
