// Package manifest implements the manifest codec (spec §4.4): decoding the
// MessagePack document a version publishes into an in-memory asset table.
package manifest

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cdnmirror/mirrorctl/checksum"
	pipelineerrors "github.com/cdnmirror/mirrorctl/internal/errors"
	"github.com/cdnmirror/mirrorctl/version"
)

// AssetRecord is one entry of a decoded manifest: the logical on-disk
// name, the blob's advertised MD5 hash, the CDN's remote filename for it
// (which differs from Name), and its advertised size in bytes.
type AssetRecord struct {
	Name       string
	Hash       checksum.Digest
	RemoteFile string
	Size       uint64
}

// Manifest is a version's frozen descriptor paired with its decoded,
// read-only asset table.
type Manifest struct {
	Descriptor version.ManifestDescriptor
	Entries    map[string]AssetRecord
	// RawBytes is the manifest's undecoded wire representation, retained
	// only so --keep-manifest can persist it alongside a version's assets.
	RawBytes []byte
}

// OrderedRecords returns the manifest's records sorted by name, giving
// callers (selection display, tests) a deterministic order independent of
// Go's randomized map iteration.
func (m Manifest) OrderedRecords() []AssetRecord {
	records := make([]AssetRecord, 0, len(m.Entries))
	for _, record := range m.Entries {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records
}

// TotalBytes sums the advertised size of every record, used by selection
// to render "{count} file, {human-bytes}" summaries.
func (m Manifest) TotalBytes() uint64 {
	var total uint64
	for _, record := range m.Entries {
		total += record.Size
	}
	return total
}

// Decode parses a manifest's raw MessagePack bytes. The top-level value
// must be an array whose element 0 is a map from logical asset name to a
// 3-tuple [hash, remoteFile, size]; any other array elements are ignored.
// Decode deliberately walks the payload by hand (rather than unmarshalling
// into a tagged struct) so malformed shapes - wrong top-level type, wrong
// tuple arity, a non-string key, a negative size - fail with
// ManifestDecodeError instead of being silently coerced.
func Decode(descriptor version.ManifestDescriptor, body []byte) (Manifest, error) {
	var top []any
	if err := msgpack.Unmarshal(body, &top); err != nil {
		return Manifest{}, &pipelineerrors.ManifestDecodeError{Reason: fmt.Sprintf("decoding MessagePack payload: %v", err)}
	}
	if len(top) == 0 {
		return Manifest{}, &pipelineerrors.ManifestDecodeError{Reason: "top-level array is empty"}
	}

	table, ok := top[0].(map[string]any)
	if !ok {
		return Manifest{}, &pipelineerrors.ManifestDecodeError{Reason: "element 0 is not a map"}
	}

	entries := make(map[string]AssetRecord, len(table))
	for name, value := range table {
		if name == "" {
			return Manifest{}, &pipelineerrors.ManifestDecodeError{Reason: "entry has an empty name"}
		}
		record, err := decodeRecord(name, value)
		if err != nil {
			return Manifest{}, err
		}
		entries[name] = record
	}

	return Manifest{Descriptor: descriptor, Entries: entries, RawBytes: body}, nil
}

func decodeRecord(name string, value any) (AssetRecord, error) {
	tuple, ok := value.([]any)
	if !ok || len(tuple) != 3 {
		return AssetRecord{}, &pipelineerrors.ManifestDecodeError{Reason: fmt.Sprintf("entry %q is not a 3-tuple", name)}
	}

	hashHex, ok := tuple[0].(string)
	if !ok {
		return AssetRecord{}, &pipelineerrors.ManifestDecodeError{Reason: fmt.Sprintf("entry %q has a non-string hash", name)}
	}
	digest, err := checksum.FromHex(hashHex)
	if err != nil {
		return AssetRecord{}, &pipelineerrors.ManifestDecodeError{Reason: fmt.Sprintf("entry %q has an invalid hash: %v", name, err)}
	}

	remoteFile, ok := tuple[1].(string)
	if !ok {
		return AssetRecord{}, &pipelineerrors.ManifestDecodeError{Reason: fmt.Sprintf("entry %q has a non-string remote filename", name)}
	}

	size, err := decodeSize(tuple[2])
	if err != nil {
		return AssetRecord{}, &pipelineerrors.ManifestDecodeError{Reason: fmt.Sprintf("entry %q has an invalid size: %v", name, err)}
	}

	return AssetRecord{Name: name, Hash: digest, RemoteFile: remoteFile, Size: size}, nil
}

func decodeSize(value any) (uint64, error) {
	switch v := value.(type) {
	case int8:
		return nonNegative(int64(v))
	case int16:
		return nonNegative(int64(v))
	case int32:
		return nonNegative(int64(v))
	case int64:
		return nonNegative(v)
	case int:
		return nonNegative(int64(v))
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("unsupported size type %T", value)
	}
}

func nonNegative(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative size %d", v)
	}
	return uint64(v), nil
}
