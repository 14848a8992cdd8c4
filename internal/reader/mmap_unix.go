//go:build unix

package reader

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type mmapReader struct {
	f      *os.File
	data   []byte
	err    error
	served bool
	closed bool
}

func newMmapReader(path string) (*mmapReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return &mmapReader{err: fmt.Errorf("open %s: %w", path, err)}, nil
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return &mmapReader{err: fmt.Errorf("stat %s: %w", path, err)}, nil
	}

	size := stat.Size()
	if size == 0 {
		return &mmapReader{f: f, data: nil, served: true}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return &mmapReader{err: fmt.Errorf("mmap %s: %w", path, err)}, nil
	}

	return &mmapReader{f: f, data: data}, nil
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
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.data != nil {
		err = unix.Munmap(r.data)
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
