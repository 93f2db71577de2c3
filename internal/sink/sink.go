// Package sink provides the byte destinations the COPY encoder writes to.
//
// A sink is append-only while the stream is encoded, then rewound exactly
// once and handed to the loader as a reader of Size bytes. Every sink keeps
// an xxh3 digest of the bytes written so two runs can be compared without
// keeping both streams around.
package sink

import (
	"bytes"
	"errors"
	"io"

	"github.com/zeebo/xxh3"
)

// ErrRewound is returned by Write once the sink has been rewound.
var ErrRewound = errors.New("sink: write after rewind")

// ByteSink is the destination of an encoded stream.
type ByteSink interface {
	io.Writer
	// Rewind ends the write phase and returns a reader positioned at offset
	// zero that yields exactly Size bytes.
	Rewind() (io.Reader, error)
	// Size is the number of bytes written.
	Size() int64
	// Sum64 is the xxh3 digest of the bytes written.
	Sum64() uint64
	// Close releases the sink's storage.
	Close() error
}

// Memory is an in-memory ByteSink.
type Memory struct {
	buf     bytes.Buffer
	hash    *xxh3.Hasher
	rewound bool
}

var _ ByteSink = (*Memory)(nil)

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{hash: xxh3.New()}
}

func (m *Memory) Write(p []byte) (int, error) {
	if m.rewound {
		return 0, ErrRewound
	}
	n, _ := m.buf.Write(p)
	_, _ = m.hash.Write(p[:n])
	return n, nil
}

func (m *Memory) Rewind() (io.Reader, error) {
	if m.rewound {
		return nil, errors.New("sink: memory sink already rewound")
	}
	m.rewound = true
	return bytes.NewReader(m.buf.Bytes()), nil
}

func (m *Memory) Size() int64 { return int64(m.buf.Len()) }

func (m *Memory) Sum64() uint64 { return m.hash.Sum64() }

// Bytes exposes the written stream. The slice is only valid until Close.
func (m *Memory) Bytes() []byte { return m.buf.Bytes() }

func (m *Memory) Close() error {
	m.buf = bytes.Buffer{}
	return nil
}
