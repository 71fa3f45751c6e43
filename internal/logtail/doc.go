// Package logtail reads the tail of the client's own log file for the
// in-app diagnostic view.
//
// The log is written by zerolog as one JSON object per line. Read returns the
// last N raw lines using a ring buffer sized to N, so memory stays bounded
// regardless of file size:
//
//	1. Allocate a ring of maxLines slots
//	2. Store each scanned line at idx, advance idx modulo maxLines
//	3. Fewer than maxLines seen: return ring[:count]
//	4. Otherwise: return the ring starting at idx (the oldest line)
//
// Tail decodes those lines into Entry values (time, level, component,
// message, error). Lines that are not JSON are kept verbatim in Entry.Raw so a
// truncated or foreign line still shows up.
//
// A missing log file is not an error; Read returns nil, nil.
package logtail
