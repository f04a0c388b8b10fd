// Package httpx provides a fault-tolerant HTTP client.
//
// Client wraps a standard http.Client with a [brace.FaultTolerance] and a
// status code classifier that maps HTTP response codes to transient or
// permanent errors, so retry decisions follow HTTP semantics: a 503 is
// worth repeating, a 400 is not. Request bodies are replayed across retries
// via GetBody, the way the standard library replays redirects.
package httpx
