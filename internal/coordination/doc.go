// Package coordination implements the client side of the cluster coordination
// service.
//
// The supervisor publishes node liveness records and reads its desired
// assignment through this client. Transport is newline-delimited JSON over a
// single TCP connection; requests are serialized on the connection and a
// broken connection is redialed on the next request. Connect retries the
// initial dial with exponential backoff up to the configured budget, after
// which an unreachable service is a fatal bootstrap error for the caller.
package coordination
