package protocol

import (
	"errors"
	"strconv"
	"strings"
)

// MaxRangeLen is the largest number of bytes a single range is allowed to
// span, per the format's protocol design (1000 KiB).
const MaxRangeLen = 1000 * 1024

// byteRange is an inclusive [Start, End] range within a resource of a
// known total length.
type byteRange struct {
	Start, End int64
}

var errMalformedRange = errors.New("protocol: malformed range header")

// parseRanges parses an RFC 7233 "bytes=a-b,c-d" header value against a
// resource of the given length, then normalizes each range per the
// format's clamp: end = start + min(end-start, len-start-1, MaxRangeLen-1).
// Ranges with start >= len or end < start are dropped as unsatisfiable; an
// end at or beyond len is clamped to len-1, not dropped. It returns an error only when
// the header itself cannot be parsed; an empty, non-error result means
// "header parsed but no ranges were satisfiable".
func parseRanges(header string, length int64) ([]byteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, errMalformedRange
	}

	var out []byteRange
	for _, part := range strings.Split(header[len(prefix):], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		dash := strings.IndexByte(part, '-')
		if dash < 0 {
			return nil, errMalformedRange
		}

		startStr, endStr := part[:dash], part[dash+1:]

		var start, end int64
		switch {
		case startStr == "" && endStr == "":
			return nil, errMalformedRange
		case startStr == "":
			// suffix range: last N bytes
			n, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil || n < 0 {
				return nil, errMalformedRange
			}
			if n > length {
				n = length
			}
			start = length - n
			end = length - 1
		case endStr == "":
			n, err := strconv.ParseInt(startStr, 10, 64)
			if err != nil || n < 0 {
				return nil, errMalformedRange
			}
			start = n
			end = length - 1
		default:
			s, err := strconv.ParseInt(startStr, 10, 64)
			if err != nil || s < 0 {
				return nil, errMalformedRange
			}
			e, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil || e < 0 {
				return nil, errMalformedRange
			}
			start, end = s, e
		}

		if start >= length || end < start {
			continue
		}

		maxEnd := start + minInt64(end-start, minInt64(length-start-1, MaxRangeLen-1))
		out = append(out, byteRange{Start: start, End: maxEnd})
	}

	return out, nil
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}

	return b
}
