package store

import "strings"

// maxNameBytes bounds one path component. Common filesystems cap components at
// 255 bytes; 240 leaves headroom.
const maxNameBytes = 240

const truncMarker = "..."

// CleanFilename strips characters that are illegal on common filesystems and
// bounds the result to maxNameBytes of UTF-8. Oversized names keep a prefix
// and a suffix of the original joined by "..." so both ends stay recognizable
// in a directory listing. Cleaning an already-clean name returns it unchanged.
func CleanFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		}
		return r
	}, name)

	if len(cleaned) <= maxNameBytes {
		return cleaned
	}

	runes := []rune(cleaned)

	// Encoded length is monotonic non-decreasing in the half-length, so the
	// largest fitting prefix/suffix pair can be found by binary search.
	left, right := 0, len(runes)/2
	for left <= right {
		half := (left + right) / 2
		candidate := joinEnds(runes, half)
		if len(candidate) <= maxNameBytes {
			if len(joinEnds(runes, half+1)) <= maxNameBytes {
				left = half + 1
			} else {
				return candidate
			}
		} else {
			right = half - 1
		}
	}

	// Fallback: scan up from zero, keeping the last candidate that fits.
	safe := ""
	for i := 0; i < len(runes)/2; i++ {
		candidate := joinEnds(runes, i)
		if len(candidate) > maxNameBytes {
			break
		}
		safe = candidate
	}
	if safe != "" {
		return safe
	}
	return cleaned[:maxNameBytes-len(truncMarker)] + truncMarker
}

func joinEnds(runes []rune, half int) string {
	return string(runes[:half]) + truncMarker + string(runes[len(runes)-half:])
}
