// Package grf reads and writes version 0x200 GRF archives, the container
// format Ragnarok Online ships its data in.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
)

const (
	grfMagic   = "Master of Magic"
	headerSize = 46
	version200 = 0x200

	// Each table record is the NUL-terminated name followed by these bytes.
	recordSize = 17
)

var (
	ErrNotFound  = errors.New("file not found")
	ErrInvalid   = errors.New("invalid GRF archive")
	ErrEncrypted = errors.New("encrypted entry")
	ErrTruncated = errors.New("truncated entry")
)

const (
	flagFile    = 0x01
	flagEncrypt = 0x02
)

// Header is the fixed 46-byte archive header.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry locates one file inside the archive body.
type Entry struct {
	Name             string
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Archive is an open GRF file. It is safe for concurrent use.
type Archive struct {
	path    string
	header  Header
	entries map[string]Entry

	mu sync.Mutex
	f  *os.File
}

// Open reads the header and file table of the archive at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	a := &Archive{path: path, f: f}
	if err := a.load(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func (a *Archive) load() error {
	var raw [headerSize]byte
	if _, err := io.ReadFull(a.f, raw[:]); err != nil {
		return fmt.Errorf("%w: header: %v", ErrInvalid, err)
	}
	h, err := parseHeader(raw[:])
	if err != nil {
		return err
	}
	a.header = h

	table, err := a.readTable()
	if err != nil {
		return err
	}
	a.entries = parseTable(table, int(h.FileCount)-int(h.Seed)-7)
	return nil
}

func parseHeader(b []byte) (Header, error) {
	var h Header
	copy(h.Magic[:], b[0:15])
	copy(h.EncryptionKey[:], b[15:30])
	h.TableOffset = binary.LittleEndian.Uint32(b[30:])
	h.Seed = binary.LittleEndian.Uint32(b[34:])
	h.FileCount = binary.LittleEndian.Uint32(b[38:])
	h.Version = binary.LittleEndian.Uint32(b[42:])

	if string(h.Magic[:]) != grfMagic {
		return h, fmt.Errorf("%w: bad magic", ErrInvalid)
	}
	if h.Version != version200 {
		return h, fmt.Errorf("%w: unsupported version 0x%x", ErrInvalid, h.Version)
	}
	return h, nil
}

// readTable returns the inflated file table.
func (a *Archive) readTable() ([]byte, error) {
	pos := int64(a.header.TableOffset) + headerSize
	var sizes [8]byte
	if _, err := a.f.ReadAt(sizes[:], pos); err != nil {
		return nil, fmt.Errorf("%w: table sizes: %v", ErrInvalid, err)
	}
	packed := make([]byte, binary.LittleEndian.Uint32(sizes[0:]))
	if _, err := a.f.ReadAt(packed, pos+8); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: table: %v", ErrInvalid, err)
	}
	table, err := inflate(packed, binary.LittleEndian.Uint32(sizes[4:]))
	if err != nil {
		return nil, fmt.Errorf("%w: table: %v", ErrInvalid, err)
	}
	return table, nil
}

// parseTable decodes up to n records. Directory records are skipped and a
// damaged tail ends the table early.
func parseTable(table []byte, n int) map[string]Entry {
	entries := make(map[string]Entry, max(n, 0))
	for ; n > 0; n-- {
		end := bytes.IndexByte(table, 0)
		if end < 0 || len(table) < end+1+recordSize {
			break
		}
		rec := table[end+1:]
		e := Entry{
			Name:             normalizePath(string(table[:end])),
			CompressedSize:   binary.LittleEndian.Uint32(rec[0:]),
			AlignedSize:      binary.LittleEndian.Uint32(rec[4:]),
			UncompressedSize: binary.LittleEndian.Uint32(rec[8:]),
			Flags:            rec[12],
			Offset:           binary.LittleEndian.Uint32(rec[13:]),
		}
		table = rec[recordSize:]
		if e.Flags&flagFile != 0 {
			entries[e.Name] = e
		}
	}
	return entries
}

func inflate(packed []byte, size uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Header returns the archive header.
func (a *Archive) Header() Header { return a.header }

func (a *Archive) String() string { return a.path }

// Close closes the underlying file. Closing twice is a no-op.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}

// List returns the normalized path of every file, sorted.
func (a *Archive) List() []string {
	return slices.Sorted(maps.Keys(a.entries))
}

// Contains reports whether path names a file in the archive.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[normalizePath(path)]
	return ok
}

// Read returns the contents of path. Lookup ignores ASCII case and accepts
// either slash direction.
func (a *Archive) Read(path string) ([]byte, error) {
	e, ok := a.entries[normalizePath(path)]
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case e.Flags&flagEncrypt != 0:
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	case e.CompressedSize > e.AlignedSize:
		return nil, fmt.Errorf("%w: %s", ErrTruncated, path)
	}

	buf := make([]byte, e.AlignedSize)
	if err := a.readAt(buf, int64(e.Offset)+headerSize); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if e.CompressedSize == e.UncompressedSize {
		return buf[:e.UncompressedSize], nil
	}
	data, err := inflate(buf[:e.CompressedSize], e.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("inflating %s: %w", path, err)
	}
	return data, nil
}

func (a *Archive) readAt(buf []byte, off int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return os.ErrClosed
	}
	// The last entry's padding may extend past the end of the body.
	if _, err := a.f.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// normalizePath maps backslashes to slashes and lowercases ASCII letters.
// Bytes >= 0x80 are left alone; they belong to EUC-KR names.
func normalizePath(path string) string {
	b := []byte(path)
	for i, c := range b {
		if c == '\\' {
			b[i] = '/'
		} else if 'A' <= c && c <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
