// Package archive implements the snapshot/delta engine: the per-entry
// metadata record, the classify-and-write algorithm that turns a scanned
// filesystem into a new snapshot, and the chain rebuilder that reconstructs
// a file's bytes by walking predecessor pointers across archives.
package archive

import (
	"encoding/binary"
	"fmt"
)

// EntryType tags how an entry's payload relates to its predecessor.
type EntryType uint32

const (
	// TypeNew means the payload bytes are the file's full contents.
	TypeNew EntryType = 1
	// TypeMod means the payload is a bsdiff patch against the predecessor.
	TypeMod EntryType = 2
	// TypeUnc means the payload is empty; the file is unchanged from the
	// predecessor named by Prev.
	TypeUnc EntryType = 3
)

func (t EntryType) String() string {
	switch t {
	case TypeNew:
		return "NEW"
	case TypeMod:
		return "MOD"
	case TypeUnc:
		return "UNC"
	default:
		return fmt.Sprintf("EntryType(%d)", uint32(t))
	}
}

// recordSize is the fixed, packed, little-endian width of an entry
// metadata record as it is stored in the 0xE0E0 extra field slot.
const recordSize = 80

// prevFieldSize is the width in bytes of the Prev field, including the
// terminating NUL. Snapshot basenames ("fsarc_YYYYMMDD-HHMMSS.zip", 25
// bytes) fit comfortably; a future naming scheme that didn't would be
// silently truncated by encode — a known limitation carried from the
// original format, not fixed here.
const prevFieldSize = 32

// ExtraFieldTag is the zip local-file-header extra field id that carries
// the Record for an entry.
const ExtraFieldTag = 0xE0E0

// Record is the exact 80-byte per-entry metadata record described in the
// on-disk format: mode, ownership, timestamps, size, type tag, and the
// predecessor snapshot's basename.
type Record struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	Type  EntryType
	Atime int64
	Mtime int64
	Ctime int64
	Size  int64
	Prev  string
}

// Encode packs r into the fixed 80-byte wire representation.
func (r Record) Encode() []byte {
	buf := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.Mode)
	binary.LittleEndian.PutUint32(buf[4:8], r.UID)
	binary.LittleEndian.PutUint32(buf[8:12], r.GID)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.Type))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(r.Atime))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(r.Mtime))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(r.Ctime))
	binary.LittleEndian.PutUint64(buf[40:48], uint64(r.Size))
	encodePrev(buf[48:80], r.Prev)
	return buf
}

// encodePrev writes name as a NUL-terminated string into a fixed-width
// field, truncating to prevFieldSize-1 bytes if necessary.
func encodePrev(dst []byte, name string) {
	for i := range dst {
		dst[i] = 0
	}
	n := len(name)
	if n > prevFieldSize-1 {
		n = prevFieldSize - 1
	}
	copy(dst[:n], name[:n])
}

// DecodeRecord unpacks a Record from its wire representation. A slot whose
// length is not exactly 80 bytes is a corrupt archive and is reported as
// ErrFormat.
func DecodeRecord(buf []byte) (Record, error) {
	if len(buf) != recordSize {
		return Record{}, fmt.Errorf("%w: metadata slot is %d bytes, want %d", ErrFormat, len(buf), recordSize)
	}

	var r Record
	r.Mode = binary.LittleEndian.Uint32(buf[0:4])
	r.UID = binary.LittleEndian.Uint32(buf[4:8])
	r.GID = binary.LittleEndian.Uint32(buf[8:12])
	r.Type = EntryType(binary.LittleEndian.Uint32(buf[12:16]))
	r.Atime = int64(binary.LittleEndian.Uint64(buf[16:24]))
	r.Mtime = int64(binary.LittleEndian.Uint64(buf[24:32]))
	r.Ctime = int64(binary.LittleEndian.Uint64(buf[32:40]))
	r.Size = int64(binary.LittleEndian.Uint64(buf[40:48]))
	r.Prev = decodePrev(buf[48:80])
	return r, nil
}

// decodePrev reads a NUL-terminated string out of a fixed-width field.
func decodePrev(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	return string(src[:n])
}

// IsDir reports whether Mode's file-type bits mark a directory. Directory
// entries carry their original scan-time Type but are identified by Mode,
// per §3 of the format.
func (r Record) IsDir() bool {
	const sIFDIR = 0o040000
	return r.Mode&sIFDIR != 0
}
