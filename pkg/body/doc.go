// Package body reads byte streams of unknown length into a growable buffer.
//
// Both sides of the device talk HTTP over connections that only reveal the
// payload length through a sequence of short reads: the setup portal reads
// form submissions, the time client reads JSON responses. Read handles both.
//
// # Growth
//
// The caller passes a pre-sized buffer. Each non-empty read advances the
// filled length; once the buffer is full its length is doubled (zero-filled)
// before the next read. Waste is bounded by 2x the payload.
//
// # Termination
//
// A zero-length read or io.EOF ends the stream. Any other read error is
// returned. On success the buffer is truncated to exactly the bytes read.
// A stream that produced no bytes at all fails with ErrEmpty.
package body
