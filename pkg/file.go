package dupfilehash

import (
	"encoding/hex"
)

// FileRecord is one regular file found by the inventory walk.
// Digest stays nil until a hash worker fills it; each record is owned by exactly one worker.
type FileRecord struct {
	Path    string // path as reached from the scan root
	Size    uint64 // size in bytes
	Digest  []byte // content hash, nil when absent
	HashErr error  // why Digest is absent after a failed read
}

// HasDigest reports whether the record was hashed successfully
func (fr *FileRecord) HasDigest() bool {
	return fr.Digest != nil
}

// DigestString returns the digest as a hex string, or "" when absent
func (fr *FileRecord) DigestString() string {
	if fr.Digest == nil {
		return ""
	}
	return hex.EncodeToString(fr.Digest)
}

// SizeGroup is a set of records sharing one exact byte size
type SizeGroup struct {
	Size    uint64
	Records []*FileRecord
}

// SkippedGroup describes a size group left unhashed because it exceeds the ceiling
type SkippedGroup struct {
	Size  uint64 `json:"size"`
	Count int    `json:"count"`
}
