package pgcopy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// StreamStats summarizes a binary COPY stream checked by Verify.
type StreamStats struct {
	Rows   int64
	Fields int
	Bytes  int64
	Nulls  int64
}

// Verify reads a complete binary COPY stream and checks its framing: the
// signature, a zero extension area, a constant field count of wantFields
// (any when wantFields < 0), well formed length prefixes, the trailer, and no
// bytes after it. It does not interpret payloads.
func Verify(r io.Reader, wantFields int) (StreamStats, error) {
	var (
		st  = StreamStats{Fields: wantFields}
		br  = bufio.NewReaderSize(r, 64<<10)
		hdr = make([]byte, HeaderLen)
	)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return st, fmt.Errorf("pgcopy: verify header: %w", err)
	}
	st.Bytes += int64(HeaderLen)
	if !bytes.Equal(hdr[:len(Signature)], []byte(Signature)) {
		return st, errors.New("pgcopy: verify: bad signature")
	}
	if ext := binary.BigEndian.Uint32(hdr[len(Signature)+4:]); ext != 0 {
		if _, err := io.CopyN(io.Discard, br, int64(ext)); err != nil {
			return st, fmt.Errorf("pgcopy: verify header extension: %w", err)
		}
		st.Bytes += int64(ext)
	}

	var word [4]byte
	for {
		if _, err := io.ReadFull(br, word[:2]); err != nil {
			return st, fmt.Errorf("pgcopy: verify row %d: missing trailer: %w", st.Rows, err)
		}
		st.Bytes += 2
		n := int16(binary.BigEndian.Uint16(word[:2]))
		if n == -1 {
			break
		}
		if n < 0 {
			return st, fmt.Errorf("pgcopy: verify row %d: negative field count %d", st.Rows, n)
		}
		// The first row fixes the arity when the caller did not.
		if st.Fields < 0 {
			st.Fields = int(n)
		}
		if int(n) != st.Fields {
			return st, fmt.Errorf("pgcopy: verify row %d: field count %d, want %d", st.Rows, n, st.Fields)
		}
		for f := 0; f < int(n); f++ {
			if _, err := io.ReadFull(br, word[:]); err != nil {
				return st, fmt.Errorf("pgcopy: verify row %d field %d: %w", st.Rows, f, err)
			}
			st.Bytes += 4
			l := int32(binary.BigEndian.Uint32(word[:]))
			if l == -1 {
				st.Nulls++
				continue
			}
			if l < 0 {
				return st, fmt.Errorf("pgcopy: verify row %d field %d: negative length %d", st.Rows, f, l)
			}
			if _, err := io.CopyN(io.Discard, br, int64(l)); err != nil {
				return st, fmt.Errorf("pgcopy: verify row %d field %d: %w", st.Rows, f, err)
			}
			st.Bytes += int64(l)
		}
		st.Rows++
	}

	switch _, err := br.ReadByte(); {
	case err == nil:
		return st, errors.New("pgcopy: verify: data after trailer")
	case err != io.EOF:
		return st, fmt.Errorf("pgcopy: verify after trailer: %w", err)
	}
	return st, nil
}
