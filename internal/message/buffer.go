package message

import "errors"

// ProcessBuffer scans buf for complete frames, decoding as many as are
// present and resynchronizing past corruption. It returns the messages it
// decoded and the number of leading bytes of buf that were consumed
// (either because they formed a complete frame, or because they were
// garbage skipped while resynchronizing). Callers retain buf[consumed:]
// and append newly-read bytes before calling again — ported from
// ProcessBuffer in python-ant's event.py.
//
// Every call makes forward progress unless buf holds a prefix of a frame
// that is still arriving (Incomplete): it never consumes zero bytes while
// also failing to return a message, except in that one wait-for-more case.
//
// resyncs counts how many times a decode failure (anything but Incomplete)
// forced a skip-ahead to the next sync byte; callers that track metrics
// use it to count corruption events without needing per-Kind detail here.
func ProcessBuffer(buf []byte) (msgs []Message, consumed int, resyncs int) {
	pos := 0
	for pos < len(buf) {
		msg, n, err := Decode(buf[pos:])
		if err == nil {
			msgs = append(msgs, msg)
			pos += n
			continue
		}

		var mErr *Error
		if errors.As(err, &mErr) && mErr.Kind == Incomplete {
			break
		}

		// Corruption: advance one byte looking for the next plausible
		// sync byte and try again from there.
		resyncs++
		pos++
		for pos < len(buf) && buf[pos] != SyncByte {
			pos++
		}
	}
	return msgs, pos, resyncs
}
