package runtime

import (
	"strings"
	"unicode/utf8"
)

// demuxStream flattens Docker's multiplexed stream format:
// [stream_type(1)][0(3)][size(4)][payload]. Data that does not look like a
// multiplexed frame is passed through untouched.
func demuxStream(data []byte) string {
	var result strings.Builder
	for len(data) > 0 {
		if len(data) >= 8 && data[0] <= 2 && data[1] == 0 && data[2] == 0 && data[3] == 0 {
			size := int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
			data = data[8:]
			if size > 0 && size <= len(data) {
				result.Write(data[:size])
				data = data[size:]
			} else {
				result.Write(data)
				break
			}
		} else {
			result.Write(data)
			break
		}
	}
	return result.String()
}

// DecodeOutput turns raw container output into a printable string. Invalid
// byte sequences are replaced, never propagated; payloads that are still
// unprintable after replacement are stripped of markup and control bytes so
// some text always comes back. Empty output is replaced with the placeholder
// so clients always get a reply.
func DecodeOutput(raw []byte, placeholder string) string {
	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	if strings.ContainsRune(text, 0) {
		text = stripMarkup(text)
	}
	if strings.TrimSpace(text) == "" {
		return placeholder
	}
	return text
}

// stripMarkup extracts plain text from a payload as if it were markup,
// dropping everything between angle brackets.
func stripMarkup(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (r >= 32 || r == '\n' || r == '\t'):
			b.WriteRune(r)
		}
	}
	return b.String()
}
