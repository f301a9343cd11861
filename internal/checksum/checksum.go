package checksum

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const bufferSize = 64 * 1024 // 64KB buffer

// ComponentSHA256 calculates the content hash of a metadata component: a
// SHA-256 digest over the primary file bytes followed by the sidecar file
// bytes (when sidecarPath is non-empty). The primary-then-sidecar order is
// fixed so the hash does not depend on filesystem enumeration order.
// The digest is returned hex encoded.
func ComponentSHA256(primaryPath, sidecarPath string) (string, error) {
	if sidecarPath == "" {
		return FilesSHA256(primaryPath)
	}
	return FilesSHA256(primaryPath, sidecarPath)
}

// FilesSHA256 calculates a single SHA-256 digest over the concatenated
// contents of the given files, in the given order, hex encoded. Callers must
// pass paths in a deterministic order.
func FilesSHA256(paths ...string) (string, error) {
	hash := sha256.New()
	for _, path := range paths {
		if err := hashFile(hash, path); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, bufferSize)
	for {
		n, err := file.Read(buffer)
		if n > 0 {
			if _, werr := w.Write(buffer[:n]); werr != nil {
				return fmt.Errorf("write to hash: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
	}
	return nil
}

// FileSHA256Base64 calculates the SHA-256 checksum of a file and returns it
// base64 encoded, the encoding S3 uses for its ChecksumSHA256 attribute.
func FileSHA256Base64(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return SHA256Base64(file)
}

// SHA256Base64 calculates the SHA-256 checksum from a reader and returns it
// base64 encoded.
func SHA256Base64(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return base64.StdEncoding.EncodeToString(hash.Sum(nil)), nil
}
