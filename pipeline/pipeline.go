// Package pipeline wires components C3-C9 into the end-to-end asset-fetch
// run described by spec.md §2: version discovery, manifest retrieval and
// decoding, selection, and the bounded-concurrency fetch of every selected
// version's assets. It is the single entry point cmd/ calls into.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"github.com/cdnmirror/mirrorctl/api"
	"github.com/cdnmirror/mirrorctl/assetjob"
	"github.com/cdnmirror/mirrorctl/checksum"
	"github.com/cdnmirror/mirrorctl/httpclient"
	"github.com/cdnmirror/mirrorctl/internal/logging"
	"github.com/cdnmirror/mirrorctl/layout"
	"github.com/cdnmirror/mirrorctl/manifest"
	"github.com/cdnmirror/mirrorctl/progress"
	"github.com/cdnmirror/mirrorctl/scheduler"
	"github.com/cdnmirror/mirrorctl/selection"
	"github.com/cdnmirror/mirrorctl/version"
)

// Result summarises one run, returned for tests and for the CLI's closing
// summary line.
type Result struct {
	ProcessedVersions []version.V
}

// Run executes one full mirror run against opts. chooser drives interactive
// selection (selection.SurveyChooser in production, a scripted fake in
// tests); sink receives progress events (progress.Terminal in production,
// progress.Null in tests).
func Run(ctx context.Context, opts api.Options, chooser selection.Chooser, sink progress.Sink) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	client := httpclient.New(httpclient.Options{RetryBudget: opts.RetryBudget})
	resolver := version.URLResolver{CDNBase: opts.CDNBase, Variant: opts.Variant}
	index := version.NewIndex(client, opts.CatalogBase, resolver)
	tree := layout.New(opts.Output)

	descriptors, mode, err := discover(ctx, index, opts)
	if err != nil {
		return Result{}, err
	}

	candidates, err := fetchManifests(ctx, client, descriptors)
	if err != nil {
		return Result{}, err
	}

	selectionMode := selectionModeFor(opts)
	selected, err := selection.Select(selectionMode, candidates, chooser, func(m manifest.Manifest) bool {
		return tree.VersionDirExists(uint64(m.Descriptor.Version))
	})
	if err != nil {
		return Result{}, err
	}

	parallelism := int64(opts.Parallelism)
	if parallelism < 1 {
		parallelism = int64(runtime.NumCPU())
	}

	result := Result{}
	for _, m := range selected {
		logging.Basicf("processing version %d (%d assets)", m.Descriptor.Version, len(m.Entries))
		if err := tree.CleanStale(uint64(m.Descriptor.Version)); err != nil {
			logging.Warningf("cleaning stale temp files for version %d: %v", m.Descriptor.Version, err)
		}

		if opts.KeepManifest && mode == assetjob.ModeDownload {
			if err := tree.WriteAtomic(uint64(m.Descriptor.Version), m.Descriptor.IndexName, m.RawBytes); err != nil {
				logging.Warningf("keeping manifest for version %d: %v", m.Descriptor.Version, err)
			}
		}

		deps := assetjob.Deps{Client: client, Tree: tree, Resolver: resolver, Sink: sink}
		records := m.OrderedRecords()

		sink.BeginSet(len(records), fmt.Sprintf("version %d", m.Descriptor.Version))
		err := scheduler.Run(ctx, records, parallelism, func(ctx context.Context, record manifest.AssetRecord) error {
			return assetjob.Run(ctx, deps, m.Descriptor.Version, record, mode)
		})
		sink.EndSet()
		if err != nil {
			return result, err
		}
		result.ProcessedVersions = append(result.ProcessedVersions, m.Descriptor.Version)
	}
	return result, nil
}

// discover resolves the candidate descriptors and the assetjob.Mode implied
// by opts, short-circuiting to a single latest() call when --latest is set
// (spec §4.5: "short-circuit to {latest()} without any list fetch").
func discover(ctx context.Context, index *version.Index, opts api.Options) ([]version.ManifestDescriptor, assetjob.Mode, error) {
	mode := modeFor(opts)

	if opts.Latest {
		descriptor, err := index.Latest(ctx)
		if err != nil {
			return nil, mode, err
		}
		return []version.ManifestDescriptor{descriptor}, mode, nil
	}

	descriptors, err := index.ListAll(ctx)
	if err != nil {
		return nil, mode, err
	}
	return descriptors, mode, nil
}

func modeFor(opts api.Options) assetjob.Mode {
	switch {
	case opts.Checksum:
		return assetjob.ModeChecksum
	case opts.DryRun:
		return assetjob.ModeDryRun
	default:
		return assetjob.ModeDownload
	}
}

func selectionModeFor(opts api.Options) selection.Mode {
	switch {
	case opts.Latest:
		return selection.ModeLatest
	case opts.Checksum:
		return selection.ModeChecksum
	default:
		return selection.ModeInteractive
	}
}

// fetchManifests retrieves and decodes every candidate's manifest. A
// decode failure is fatal only to that version; remaining versions
// continue (spec §7).
func fetchManifests(ctx context.Context, client *httpclient.Client, descriptors []version.ManifestDescriptor) ([]manifest.Manifest, error) {
	manifests := make([]manifest.Manifest, 0, len(descriptors))
	for _, descriptor := range descriptors {
		resp, body, err := client.Get(ctx, descriptor.DataURL)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusNotFound {
			continue
		}
		if err := checksum.Verify(resp.Header, body, descriptor.DataURL); err != nil {
			logging.Warningf("skipping version %d: %v", descriptor.Version, err)
			continue
		}
		decoded, err := manifest.Decode(descriptor, body)
		if err != nil {
			logging.Warningf("skipping version %d: %v", descriptor.Version, err)
			continue
		}
		manifests = append(manifests, decoded)
	}
	return manifests, nil
}
