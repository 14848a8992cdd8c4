// Package reader yields successive byte spans from a file, either via
// bounded buffered reads or a single memory-mapped span over the whole
// file.
package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// DefaultBufferSize is used when Options.BufferSize is zero.
	DefaultBufferSize = 256 << 10 // 256 KiB
	minBufferSize     = 4 << 10  // 4 KiB
	maxBufferSize     = 64 << 20 // 64 MiB
)

// Options configures a Reader.
type Options struct {
	UseMmap    bool
	BufferSize int
}

// Reader yields successive byte spans over a file. Next returns an empty
// span once the file is exhausted. A construction-time error is latched
// and surfaced by the first call to Next rather than by New, matching the
// "terminal error flag consulted after construction" contract.
type Reader interface {
	Next() ([]byte, error)
	Close() error
}

// New opens path and returns a buffered or mmap-backed Reader per opts.
func New(path string, opts Options) (Reader, error) {
	if opts.BufferSize == 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.BufferSize < minBufferSize {
		opts.BufferSize = minBufferSize
	}
	if opts.BufferSize > maxBufferSize {
		opts.BufferSize = maxBufferSize
	}

	if opts.UseMmap {
		return newMmapReader(path)
	}
	return newBufferedReader(path, opts.BufferSize)
}

type bufferedReader struct {
	f      *os.File
	buf    []byte
	err    error
	closed bool
}

func newBufferedReader(path string, bufSize int) (*bufferedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return &bufferedReader{err: fmt.Errorf("open %s: %w", path, err)}, nil
	}
	return &bufferedReader{f: f, buf: make([]byte, bufSize)}, nil
}

func (r *bufferedReader) Next() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	n, err := r.f.Read(r.buf)
	if n > 0 {
		return r.buf[:n], nil
	}
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		r.err = fmt.Errorf("read: %w", err)
		return nil, r.err
	}
	return nil, nil
}

func (r *bufferedReader) Close() error {
	if r.closed || r.f == nil {
		return nil
	}
	r.closed = true
	return r.f.Close()
}
