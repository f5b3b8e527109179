package dupfilehash

import (
	"strings"
)

// Record index contexts. A record's context tracks how far it got through the pipeline.
const (
	ScanContext      = "scan"
	HashedContext    = "hashed"
	FailedContext    = "failed"
	OversizedContext = "oversized"
)

// Hash type constants
const (
	HashTypeSHA256 uint16 = 2 // SHA-256 (32 bytes)
	HashTypeSHA512 uint16 = 3 // SHA-512 (64 bytes)
	HashTypeBLAKE3 uint16 = 4 // BLAKE3 (32 bytes)
)

// Hash size constants
const (
	HashSizeSHA256 = 32
	HashSizeSHA512 = 64
	HashSizeBLAKE3 = 32
)

// Engine defaults
const (
	DefaultHashAlgorithm = "sha256"
	DefaultBufferSize    = 8 * 1024              // read buffer per hash worker
	DefaultMaxHashSizeMB = 1024                  // ceiling for hashing, in MiB
	DefaultCeilingBytes  = DefaultMaxHashSizeMB << 20
	DefaultOutputFormat  = "human"
)

// Report formats
const (
	FormatHuman  = "human"
	FormatJSON   = "json"
	FormatFdupes = "fdupes"
)

// HashTypeName returns the human-readable name for a hash type
func HashTypeName(hashType uint16) string {
	switch hashType {
	case HashTypeSHA256:
		return "sha256"
	case HashTypeSHA512:
		return "sha512"
	case HashTypeBLAKE3:
		return "blake3"
	default:
		return "unknown"
	}
}

// HashTypeFromName returns the hash type constant from a name (case-insensitive)
func HashTypeFromName(name string) (uint16, bool) {
	switch strings.ToLower(name) {
	case "sha256":
		return HashTypeSHA256, true
	case "sha512":
		return HashTypeSHA512, true
	case "blake3":
		return HashTypeBLAKE3, true
	default:
		return 0, false
	}
}
