//go:build !unix

package reader

import (
	"fmt"
	"os"
)

// mmapReader on non-unix platforms falls back to reading the whole file
// into memory, preserving the "one span over the whole file" contract
// without relying on a platform mmap syscall.
type mmapReader struct {
	data    []byte
	err     error
	served  bool
}

func newMmapReader(path string) (*mmapReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &mmapReader{err: fmt.Errorf("read %s: %w", path, err)}, nil
	}
	return &mmapReader{data: data}, nil
}

func (r *mmapReader) Next() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.served {
		return nil, nil
	}
	r.served = true
	return r.data, nil
}

func (r *mmapReader) Close() error {
	return nil
}
