// Package github is the source-hosting client used by bootstrap imports and
// gist export.
//
// Every failure returned by Client is a *Error whose Kind classifies it at the
// boundary:
//
//   - KindNotFound: the API answered 404
//   - KindTransient: the request never reached the server (DNS lookup,
//     dial, refused connection, TLS handshake)
//   - KindOther: anything else, including non-404 statuses, bad payloads and
//     timeouts or resets after the request was written
//
// Callers branch on the Kind with IsNotFound and IsTransient instead of
// inspecting HTTP responses.
package github
