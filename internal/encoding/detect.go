// Package encoding normalizes partner exports to UTF-8 before parsing.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	CharsetUTF8        = "UTF-8"
	CharsetUTF16LE     = "UTF-16LE"
	CharsetUTF16BE     = "UTF-16BE"
	CharsetWindows1252 = "windows-1252"
	CharsetISO885915   = "ISO-8859-15"
	CharsetISO88599    = "ISO-8859-9"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// chardet names mapped to decoders. Latin-1 is read as Windows-1252, its superset.
var decoders = map[string]struct {
	name string
	enc  encoding.Encoding
}{
	"ISO-8859-1":   {CharsetWindows1252, charmap.Windows1252},
	"windows-1252": {CharsetWindows1252, charmap.Windows1252},
	"ISO-8859-15":  {CharsetISO885915, charmap.ISO8859_15},
	"ISO-8859-9":   {CharsetISO88599, charmap.ISO8859_9},
}

// NewUTF8Reader detects the encoding of the input and returns a reader that
// decodes the content to UTF-8, along with the name of the detected charset.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Valid UTF-8 is returned as-is
//  3. Heuristic detection via chardet
//  4. Fallback to Windows-1252
func NewUTF8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, CharsetUTF8, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), CharsetUTF16LE, nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), CharsetUTF16BE, nil
	}

	if utf8.Valid(buf) {
		return br, CharsetUTF8, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		if result.Charset == CharsetUTF8 {
			return br, CharsetUTF8, nil
		}

		if d, ok := decoders[result.Charset]; ok {
			return transform.NewReader(br, d.enc.NewDecoder()), d.name, nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), CharsetWindows1252, nil
}
