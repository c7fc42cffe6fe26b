// Package deobfuscate removes the XOR mask applied to the head of a media file.
//
// Only the first len(keystream) bytes are masked; everything after is copied
// verbatim. Applying the transform twice with the same keystream restores the
// input.
package deobfuscate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the buffer size used when copying the unmasked remainder.
const ChunkSize = 1 << 20

// ErrEmptyInput is returned when the source holds no bytes at all.
var ErrEmptyInput = errors.New("encrypted file is empty")

// Stream XORs the head of src with ks and writes the result followed by the
// rest of src to dst. It returns the number of bytes written. A source shorter
// than ks has only its available bytes unmasked.
func Stream(dst io.Writer, src io.Reader, ks []byte) (int64, error) {
	head := make([]byte, len(ks))
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return 0, ErrEmptyInput
		}
		return 0, fmt.Errorf("read head: %w", err)
	}
	head = head[:n]

	XOR(head, ks)

	written, err := dst.Write(head)
	total := int64(written)
	if err != nil {
		return total, fmt.Errorf("write head: %w", err)
	}

	rest, err := io.CopyBuffer(onlyWriter{dst}, onlyReader{src}, make([]byte, ChunkSize))
	total += rest
	if err != nil {
		return total, fmt.Errorf("copy remainder: %w", err)
	}
	if total == 0 {
		return 0, ErrEmptyInput
	}
	return total, nil
}

// XOR masks buf in place with ks. Bytes beyond len(ks) are left untouched.
func XOR(buf, ks []byte) {
	n := min(len(buf), len(ks))
	for i := 0; i < n; i++ {
		buf[i] ^= ks[i]
	}
}

// File deobfuscates cipherPath into plainPath, overwriting it. On failure
// after plainPath was created the partial output is left in place.
func File(cipherPath string, ks []byte, plainPath string) (int64, error) {
	in, err := os.Open(cipherPath)
	if err != nil {
		return 0, fmt.Errorf("open encrypted file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(plainPath)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}

	buffered := bufio.NewWriterSize(out, ChunkSize)
	written, streamErr := Stream(buffered, in, ks)
	if streamErr == nil {
		streamErr = buffered.Flush()
	}
	closeErr := out.Close()
	if streamErr != nil {
		return written, streamErr
	}
	if closeErr != nil {
		return written, fmt.Errorf("close output file: %w", closeErr)
	}
	return written, nil
}

// onlyReader and onlyWriter hide ReaderFrom/WriterTo so CopyBuffer honours
// the fixed chunk size.
type onlyReader struct{ io.Reader }

type onlyWriter struct{ io.Writer }
