package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
)

// DefaultFileBuffer is the write buffer of a File sink.
const DefaultFileBuffer = 4 << 20

// File is a ByteSink backed by a temporary file. The file is removed by
// Close, including after a failed encode, so partial streams never outlive
// the load.
type File struct {
	f       *os.File
	w       *bufio.Writer
	hash    *xxh3.Hasher
	size    int64
	rewound bool
}

var _ ByteSink = (*File)(nil)

// NewFile creates the spool file at path, replacing any existing file. An
// empty path creates a file in the OS temp directory. bufSize <= 0 selects
// DefaultFileBuffer.
func NewFile(path string, bufSize int) (*File, error) {
	if bufSize <= 0 {
		bufSize = DefaultFileBuffer
	}

	var (
		f   *os.File
		err error
	)
	if path == "" {
		f, err = os.CreateTemp("", "pgbinload-*.copy")
	} else {
		if path, err = filepath.Abs(path); err != nil {
			return nil, fmt.Errorf("sink: resolve %q: %w", path, err)
		}
		if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("sink: remove stale %q: %w", path, err)
		}
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	}
	if err != nil {
		return nil, fmt.Errorf("sink: create spool file: %w", err)
	}
	adviseSequential(f)

	return &File{
		f:    f,
		w:    bufio.NewWriterSize(f, bufSize),
		hash: xxh3.New(),
	}, nil
}

// Path is the absolute path of the spool file.
func (s *File) Path() string { return s.f.Name() }

func (s *File) Write(p []byte) (int, error) {
	if s.rewound {
		return 0, ErrRewound
	}
	n, err := s.w.Write(p)
	s.size += int64(n)
	_, _ = s.hash.Write(p[:n])
	return n, err
}

func (s *File) Rewind() (io.Reader, error) {
	if s.rewound {
		return nil, fmt.Errorf("sink: %s already rewound", s.f.Name())
	}
	s.rewound = true
	if err := s.w.Flush(); err != nil {
		return nil, fmt.Errorf("sink: flush %s: %w", s.f.Name(), err)
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("sink: rewind %s: %w", s.f.Name(), err)
	}
	return io.LimitReader(bufio.NewReaderSize(s.f, DefaultFileBuffer), s.size), nil
}

func (s *File) Size() int64 { return s.size }

func (s *File) Sum64() uint64 { return s.hash.Sum64() }

// Close closes and deletes the spool file.
func (s *File) Close() error {
	name := s.f.Name()
	cerr := s.f.Close()
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sink: remove %s: %w", name, err)
	}
	return cerr
}
