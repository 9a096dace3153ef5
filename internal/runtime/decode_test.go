package runtime

import (
	"strings"
	"testing"
)

func frame(stream byte, payload string) []byte {
	n := len(payload)
	header := []byte{stream, 0, 0, 0, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	return append(header, payload...)
}

func TestDemuxStream(t *testing.T) {
	var data []byte
	data = append(data, frame(1, "hello ")...)
	data = append(data, frame(2, "world\n")...)

	if got := demuxStream(data); got != "hello world\n" {
		t.Errorf("demuxStream = %q, want %q", got, "hello world\n")
	}
}

func TestDemuxStream_PassthroughPlainText(t *testing.T) {
	plain := []byte("no frames here\n")
	if got := demuxStream(plain); got != string(plain) {
		t.Errorf("demuxStream = %q, want passthrough", got)
	}
}

func TestDemuxStream_BinaryPrefixNotAHeader(t *testing.T) {
	// Output beginning with 0x00-0x02 is only a frame when the three padding
	// bytes are zero too.
	raw := []byte{0x01, 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h'}
	if got := demuxStream(raw); got != string(raw) {
		t.Errorf("demuxStream = %q, want passthrough", got)
	}
}

func TestDemuxStream_TruncatedFrame(t *testing.T) {
	data := frame(1, "abcdef")
	data = data[:len(data)-3] // size claims 6 bytes, only 3 present
	got := demuxStream(data)
	if got != "abc" {
		t.Errorf("demuxStream = %q, want remaining bytes", got)
	}
}

func TestDecodeOutput_InvalidUTF8Replaced(t *testing.T) {
	raw := []byte{'o', 'k', 0xff, 0xfe, '\n'}
	got := DecodeOutput(raw, "(empty)")
	if !strings.HasPrefix(got, "ok") || !strings.Contains(got, "�") {
		t.Errorf("DecodeOutput = %q, want replacement runes", got)
	}
}

func TestDecodeOutput_BinaryFallsBackToStripping(t *testing.T) {
	raw := []byte("<b>bold\x00text</b>")
	got := DecodeOutput(raw, "(empty)")
	if got != "boldtext" {
		t.Errorf("DecodeOutput = %q, want markup and NULs stripped", got)
	}
}

func TestDecodeOutput_EmptyPlaceholder(t *testing.T) {
	cases := [][]byte{nil, []byte(""), []byte("   \n\t")}
	for _, raw := range cases {
		if got := DecodeOutput(raw, "(no output)"); got != "(no output)" {
			t.Errorf("DecodeOutput(%q) = %q, want placeholder", raw, got)
		}
	}
}

func TestDecodeOutput_CleanTextUntouched(t *testing.T) {
	if got := DecodeOutput([]byte("total 4\ndrwxr-xr-x\n"), "(empty)"); got != "total 4\ndrwxr-xr-x\n" {
		t.Errorf("DecodeOutput = %q", got)
	}
}
