// Package formatter defines how log events are serialized into bytes.
//
// Formatter returns a []byte; WriterFormatter writes straight to an
// io.Writer; BufferFormatter appends to a caller-owned buffer, which is
// what the file and console destinations use on their worker goroutine.
//
// Three formatters are provided:
//
//   - TextFormatter produces the line layout used by files, HTTP and the
//     console: "2006-01-02 15:04:05 file.go:42: message".
//   - JSONFormatter produces one JSON object per line.
//   - SyslogFormatter produces an RFC 3164 datagram body with facility
//     local0 unless configured otherwise.
//
// All of them use a pooled bytes.Buffer internally. Buffers larger than
// 64 KiB are not returned to the pool.
package formatter
