package dupfilehash

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

// ErrHashInterrupted is returned when hashing stops because the shutdown channel closed
var ErrHashInterrupted = errors.New("hash operation interrupted by shutdown")

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	TypeID  uint16
	Size    int
	NewFunc func() hash.Hash
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name (case-insensitive)
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	typeID, ok := HashTypeFromName(name)
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
	return GetHashAlgorithmByType(typeID)
}

// GetHashAlgorithmByType returns the hash algorithm configuration for the given type ID
func GetHashAlgorithmByType(typeID uint16) (*HashAlgorithm, error) {
	algorithm := &HashAlgorithm{Name: HashTypeName(typeID), TypeID: typeID}
	switch typeID {
	case HashTypeSHA256:
		algorithm.Size = HashSizeSHA256
		algorithm.NewFunc = sha256.New
	case HashTypeSHA512:
		algorithm.Size = HashSizeSHA512
		algorithm.NewFunc = sha512.New
	case HashTypeBLAKE3:
		algorithm.Size = HashSizeBLAKE3
		algorithm.NewFunc = func() hash.Hash { return blake3.New() }
	default:
		return nil, fmt.Errorf("unsupported hash type ID: %d", typeID)
	}
	return algorithm, nil
}

// HashFileInterruptible streams a file through the algorithm one buffer at a time,
// checking for shutdown between reads. Memory use is one buffer regardless of file size.
// A nil shutdownChan never interrupts.
func HashFileInterruptible(filePath string, algorithm *HashAlgorithm, bufferSize int, shutdownChan <-chan struct{}) ([]byte, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	// Advisory only; some filesystems refuse it.
	if err := unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil {
		DebugLog("hash", "fadvise failed for %s: %v", filePath, err)
	}

	hasher := algorithm.NewFunc()
	buffer := make([]byte, bufferSize)

	for {
		select {
		case <-shutdownChan:
			return nil, ErrHashInterrupted
		default:
		}

		n, err := file.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read from file %s: %w", filePath, err)
		}
	}

	return hasher.Sum(nil), nil
}
