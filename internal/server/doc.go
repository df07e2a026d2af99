// Package server provides an in-memory mock of the item-exchange service.
//
// This package is internal and exists for demos and manual testing: it
// speaks the HTTP contract the client library expects, so a session can
// be pointed at it with the endpoint URL options.
//
//   - POST /v1/auth/login: checks the credential pair, issues a session
//     cookie, returns the current server timestamp
//   - POST /v1/item/set: stamps the submitted batch and appends it to
//     per-portal buffers
//   - POST /v1/item/get: drains the requested portals in schedule order
//
// Any non-empty credential pair is accepted. Structured errors mirror the
// service's envelope: 400/401 responses carry
// {"error":{"errorgroup","errorcode","errormessage"}}.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests. It is not a production service:
// items live in memory and sessions never expire.
package server
