package charset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// ErrUndetermined means no supported encoding fits the file. Callers exclude
// such files from the operation and report them.
var ErrUndetermined = errors.New("encoding could not be determined")

// DefaultSampleBytes is how much of a file the Sniffer inspects.
const DefaultSampleBytes = 64 * 1024

// Detector resolves the encoding of a file.
type Detector interface {
	Detect(path string) (Encoding, error)
}

// Fixed is a Detector that always answers with the same encoding, for callers
// that were told the encoding up front.
type Fixed Encoding

func (f Fixed) Detect(string) (Encoding, error) {
	return Encoding(f), nil
}

// Sniffer guesses an encoding from the first SampleBytes of a file:
// byte-order marks first, then the NUL pattern of BOM-less UTF-16, then UTF-8
// validity, and finally Windows-1252 when the sample holds no byte that code
// page leaves undefined.
type Sniffer struct {
	SampleBytes int
	// Open lets tests and compressed sources supply the byte stream.
	// Defaults to os.Open.
	Open func(path string) (io.ReadCloser, error)
}

// NewSniffer returns a Sniffer reading sampleBytes per file; values <= 0 use
// DefaultSampleBytes.
func NewSniffer(sampleBytes int) *Sniffer {
	if sampleBytes <= 0 {
		sampleBytes = DefaultSampleBytes
	}
	return &Sniffer{SampleBytes: sampleBytes}
}

// Detect reads the head of path and classifies it. A missing, unreadable or
// empty file is reported as ErrUndetermined wrapped with the cause.
func (s *Sniffer) Detect(path string) (Encoding, error) {
	open := s.Open
	if open == nil {
		open = func(p string) (io.ReadCloser, error) { return os.Open(p) }
	}

	f, err := open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUndetermined, err)
	}
	defer f.Close()

	n := s.SampleBytes
	if n <= 0 {
		n = DefaultSampleBytes
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	complete := false
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		complete = true
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrUndetermined, err)
	}

	return Sniff(buf[:read], complete)
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Sniff classifies a sample. complete reports whether sample is the whole
// file, in which case a truncated multi-byte sequence at the end is invalid
// rather than cut off by the sample boundary.
func Sniff(sample []byte, complete bool) (Encoding, error) {
	if len(sample) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUndetermined)
	}

	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return UTF8BOM, nil
	case bytes.HasPrefix(sample, bomUTF16LE):
		return UTF16LE, nil
	case bytes.HasPrefix(sample, bomUTF16BE):
		return UTF16BE, nil
	}

	if enc, ok := sniffUTF16(sample); ok {
		return enc, nil
	}

	if bytes.IndexByte(sample, 0) >= 0 {
		return "", fmt.Errorf("%w: sample contains NUL bytes", ErrUndetermined)
	}

	body := sample
	if !complete {
		body = sample[:len(sample)-incompleteTrailingBytes(sample)]
	}
	if utf8.Valid(body) {
		return UTF8, nil
	}

	for _, b := range sample {
		if undefinedIn1252(b) {
			return "", fmt.Errorf("%w: byte 0x%02X is not valid UTF-8 or Windows-1252", ErrUndetermined, b)
		}
	}
	return Windows1252, nil
}

// sniffUTF16 recognises BOM-less UTF-16 by where its NUL bytes sit. Mostly
// Latin text encoded as UTF-16LE has a NUL in nearly every odd position and
// almost none in even ones; BE is the mirror image.
func sniffUTF16(sample []byte) (Encoding, bool) {
	pairs := len(sample) / 2
	if pairs < 2 {
		return "", false
	}
	var even, odd int
	for i := 0; i+1 < len(sample); i += 2 {
		if sample[i] == 0 {
			even++
		}
		if sample[i+1] == 0 {
			odd++
		}
	}
	const high, low = 0.4, 0.05
	switch {
	case float64(odd) >= high*float64(pairs) && float64(even) <= low*float64(pairs):
		return UTF16LE, true
	case float64(even) >= high*float64(pairs) && float64(odd) <= low*float64(pairs):
		return UTF16BE, true
	}
	return "", false
}

// undefinedIn1252 reports the five byte values Windows-1252 leaves unassigned.
func undefinedIn1252(b byte) bool {
	switch b {
	case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
		return true
	}
	return false
}

// incompleteTrailingBytes returns the number of bytes at the end of data that
// start a multi-byte UTF-8 sequence the sample cut short.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		// anything but a continuation byte ends the search
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the length of the UTF-8 sequence a lead byte announces.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	}
	return 4
}
