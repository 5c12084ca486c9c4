// Package version implements the version index (spec §4.3) and the
// pluggable URL-resolution scheme described in spec.md's design notes: the
// epoch split, CDN host, and OS sub-path are the sole polymorphism point
// over the CDN's layout, kept separate from the HTTP fetch/decode logic so
// it can be tested without a network.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cdnmirror/mirrorctl/httpclient"
)

// V identifies a published asset set. Ordering is numeric.
type V uint64

// Epoch is the cutoff that partitions URL templates: versions below it use
// the "2017v1" sub-path, versions at or above it use "2018v1".
const Epoch V = 70000

// ManifestDescriptor is frozen once created by the version index: a
// version paired with the manifest filename the catalog handed back and
// the fully resolved URL to fetch it from.
type ManifestDescriptor struct {
	Version   V
	IndexName string
	DataURL   string
}

// URLResolver derives CDN URLs for a given version and remote filename. It
// is the one polymorphism point over the CDN's directory layout: the epoch
// split, the host base, and the OS sub-path segment (Android vs iOS).
type URLResolver struct {
	CDNBase string
	Variant string // "android" or "ios"
}

// EpochSegment returns the sub-path segment for a version ("2017v1" below
// the epoch cutoff, "2018v1" at or after it).
func (r URLResolver) EpochSegment(v V) string {
	if v < Epoch {
		return "2017v1"
	}
	return "2018v1"
}

func (r URLResolver) osSegment() string {
	if r.Variant == "ios" {
		return "iOS"
	}
	return "Android"
}

// BlobURL resolves the CDN URL for a single remote filename (a manifest or
// an asset blob) published under the given version.
func (r URLResolver) BlobURL(v V, remoteFilename string) string {
	return fmt.Sprintf("%s/%d/production/%s/%s/%s", r.CDNBase, uint64(v), r.EpochSegment(v), r.osSegment(), remoteFilename)
}

// Descriptor builds a ManifestDescriptor for a version and manifest
// filename handed back by the catalog service.
func (r URLResolver) Descriptor(v V, indexName string) ManifestDescriptor {
	return ManifestDescriptor{Version: v, IndexName: indexName, DataURL: r.BlobURL(v, indexName)}
}

// Index enumerates published versions via the catalog service (spec §6:
// "Version catalog").
type Index struct {
	client      *httpclient.Client
	catalogBase string
	resolver    URLResolver
}

// NewIndex constructs an Index against the given catalog base URL.
func NewIndex(client *httpclient.Client, catalogBase string, resolver URLResolver) *Index {
	return &Index{client: client, catalogBase: catalogBase, resolver: resolver}
}

type catalogEntry struct {
	Version   V      `json:"version"`
	IndexName string `json:"indexName"`
}

type latestResponse struct {
	Res catalogEntry `json:"res"`
}

// ListAll returns every published version, ordered descending.
func (i *Index) ListAll(ctx context.Context) ([]ManifestDescriptor, error) {
	url := i.catalogBase + "/version/assets"
	_, body, err := i.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	var entries []catalogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding version catalog from %s: %w", url, err)
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Version > entries[b].Version })

	descriptors := make([]ManifestDescriptor, len(entries))
	for idx, entry := range entries {
		descriptors[idx] = i.resolver.Descriptor(entry.Version, entry.IndexName)
	}
	return descriptors, nil
}

// Latest returns the single most recently published version, without
// fetching the full catalog.
func (i *Index) Latest(ctx context.Context) (ManifestDescriptor, error) {
	url := i.catalogBase + "/version/latest"
	_, body, err := i.client.Get(ctx, url)
	if err != nil {
		return ManifestDescriptor{}, err
	}
	var resp latestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ManifestDescriptor{}, fmt.Errorf("decoding latest version from %s: %w", url, err)
	}
	return i.resolver.Descriptor(resp.Res.Version, resp.Res.IndexName), nil
}
