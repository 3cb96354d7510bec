// Package server exposes form sessions over HTTP.
//
// Routes:
//
//	GET    /                        open a session, redirect to its form
//	POST   /sessions                open a session (JSON links with Accept: application/json)
//	GET    /sessions/{id}           render the form (?renderer=, ?theme=, ?variant=)
//	POST   /sessions/{id}           apply a form submission and re-render
//	DELETE /sessions/{id}           forget the session
//	GET    /sessions/{id}/document  canonical JSON-LD with a digest ETag
//	GET    /sessions/{id}/ws        live edits over a websocket
//	GET    /assets/{name}           renderer stylesheet and script
//
// Submissions carry the session version; a post rendered from an older
// snapshot is rejected with 409 and the current form.
package server
