// Package netdest provides best-effort delivery of log events to remote
// endpoints.
//
// A NetworkDestination owns one bounded queue and one worker. The
// transport is a Target:
//
//   - HTTPTarget posts each line to a URL; status 200-399 is success.
//   - SyslogTarget sends RFC 3164 datagrams over UDP from its own sender
//     goroutine and never reports failure.
//   - BeatsTarget ships events to a Logstash Beats input.
//
// Delivery fails fast. The first failed Transmit disables the destination
// permanently: OnFailure runs once, the worker exits, and later events are
// ignored. There are no retries and no reconnects; the host decides
// whether to add a fresh destination.
package netdest
