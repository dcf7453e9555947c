// Package encoding converts between the EUC-KR names stored in Ragnarok
// Online archives and UTF-8.
package encoding

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
)

// convert runs s through t, reporting false when t rejects it.
func convert(t interface{ String(string) (string, error) }, s string) (string, bool) {
	out, err := t.String(s)
	if err != nil {
		return s, false
	}
	return out, true
}

func decoder() *encoding.Decoder { return korean.EUCKR.NewDecoder() }
func encoder() *encoding.Encoder { return korean.EUCKR.NewEncoder() }

// EUCKRToUTF8 decodes EUC-KR bytes. Undecodable input is returned as is.
func EUCKRToUTF8(data []byte) string {
	out, _ := convert(decoder(), string(data))
	return out
}

// UTF8ToEUCKR encodes s as EUC-KR. Unencodable input is returned as is.
func UTF8ToEUCKR(s string) []byte {
	out, _ := convert(encoder(), s)
	return []byte(out)
}

// DisplayName returns s as UTF-8. Strings that are not valid UTF-8 are
// taken to be EUC-KR.
func DisplayName(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return EUCKRToUTF8([]byte(s))
}

// ArchiveName returns the EUC-KR form of a UTF-8 path as archives store
// it. ok is false when s is plain ASCII, is not UTF-8, or cannot be
// encoded; s is then already the archive name.
func ArchiveName(s string) (name string, ok bool) {
	if isASCII(s) || !utf8.ValidString(s) {
		return s, false
	}
	return convert(encoder(), s)
}

func isASCII(s string) bool {
	for i := range len(s) {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
