package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Write creates a version 0x200 GRF archive at path holding files, keyed by
// their in-archive path. Entries are stored compressed, in name order.
func Write(path string, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var body, table bytes.Buffer
	for _, name := range names {
		var compressed bytes.Buffer
		w := zlib.NewWriter(&compressed)
		if _, err := w.Write(files[name]); err != nil {
			return fmt.Errorf("compressing %s: %w", name, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("compressing %s: %w", name, err)
		}

		// Entries are padded to 8 bytes.
		aligned := compressed.Len()
		if aligned%8 != 0 {
			aligned += 8 - aligned%8
		}

		table.WriteString(strings.ReplaceAll(name, "/", "\\"))
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(compressed.Len()))
		binary.Write(&table, binary.LittleEndian, uint32(aligned))
		binary.Write(&table, binary.LittleEndian, uint32(len(files[name])))
		table.WriteByte(flagFile)
		binary.Write(&table, binary.LittleEndian, uint32(body.Len()))

		body.Write(compressed.Bytes())
		body.Write(make([]byte, aligned-compressed.Len()))
	}

	var compressedTable bytes.Buffer
	tw := zlib.NewWriter(&compressedTable)
	if _, err := tw.Write(table.Bytes()); err != nil {
		return fmt.Errorf("compressing file table: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("compressing file table: %w", err)
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(names)) + 7,
		Version:     version200,
	}
	copy(header.Magic[:], grfMagic)

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(compressedTable.Len()), uint32(table.Len())})
	out.Write(compressedTable.Bytes())

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}
