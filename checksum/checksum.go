// Package checksum implements the integrity module (spec §4.2): parsing the
// provider's x-goog-hash response header and computing/verifying MD5
// digests of transferred bodies.
//
// The provider only ever advertises a single algorithm (md5), so this is
// deliberately narrower than a multi-algorithm integrity type: there is
// exactly one digest shape in this wire format.
package checksum

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	pipelineerrors "github.com/cdnmirror/mirrorctl/internal/errors"
)

// Digest is a raw 16-byte MD5 digest.
type Digest [md5.Size]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", [md5.Size]byte(d))
}

// Equal reports whether two digests hold the same bytes.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// FromHeader extracts and base64-decodes the md5= entry of a response's
// x-goog-hash header. x-goog-hash is a comma-separated list of
// "algo=base64digest" entries; only the md5 entry is meaningful here.
func FromHeader(h http.Header, url string) (Digest, error) {
	raw := h.Get("x-goog-hash")
	if raw == "" {
		return Digest{}, &pipelineerrors.MissingHashHeader{URL: url}
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		algo, value, ok := strings.Cut(entry, "=")
		if !ok || algo != "md5" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil || len(decoded) != md5.Size {
			return Digest{}, &pipelineerrors.MissingHashHeader{URL: url}
		}
		var digest Digest
		copy(digest[:], decoded)
		return digest, nil
	}
	return Digest{}, &pipelineerrors.MissingHashHeader{URL: url}
}

// FromHex decodes the hex-encoded MD5 hash carried by a manifest entry.
func FromHex(hexDigest string) (Digest, error) {
	decoded, err := hex.DecodeString(hexDigest)
	if err != nil {
		return Digest{}, fmt.Errorf("decoding hex digest %q: %w", hexDigest, err)
	}
	if len(decoded) != md5.Size {
		return Digest{}, fmt.Errorf("unexpected digest length for %q: got %d bytes, want %d", hexDigest, len(decoded), md5.Size)
	}
	var digest Digest
	copy(digest[:], decoded)
	return digest, nil
}

// OfBytes returns the MD5 digest of a full byte buffer.
func OfBytes(body []byte) Digest {
	return Digest(md5.Sum(body))
}

// Verify fails with ChecksumMismatch unless the body's digest matches the
// digest advertised in the response header.
func Verify(h http.Header, body []byte, url string) error {
	expected, err := FromHeader(h, url)
	if err != nil {
		return err
	}
	actual := OfBytes(body)
	if !expected.Equal(actual) {
		return &pipelineerrors.ChecksumMismatch{URL: url, Expected: expected, Actual: actual}
	}
	return nil
}
