// Package assetjob implements the per-asset state machine (spec §4.7):
// HEAD-skip short-circuit, GET, verify, and atomic persist for a single
// AssetRecord. It is the unit of work the scheduler package fans out
// concurrently.
package assetjob

import (
	"context"
	"os"

	"github.com/cdnmirror/mirrorctl/checksum"
	pipelineerrors "github.com/cdnmirror/mirrorctl/internal/errors"
	"github.com/cdnmirror/mirrorctl/httpclient"
	"github.com/cdnmirror/mirrorctl/layout"
	"github.com/cdnmirror/mirrorctl/manifest"
	"github.com/cdnmirror/mirrorctl/progress"
	"github.com/cdnmirror/mirrorctl/version"
)

// Mode selects which of the three run modes a job operates under (spec
// §4.7, §6): a normal download persists bytes to disk; dry-run fetches and
// verifies but writes nothing; checksum mode never touches the network
// body and instead asserts the local file already matches.
type Mode int

const (
	ModeDownload Mode = iota
	ModeDryRun
	ModeChecksum
)

// Deps bundles a job's collaborators: the shared HTTP client, the output
// tree, the URL resolver for the version being processed, and the
// progress sink. None of these are mutated by a job.
type Deps struct {
	Client   *httpclient.Client
	Tree     *layout.Tree
	Resolver version.URLResolver
	Sink     progress.Sink
}

// Run executes the state machine for a single record: pending -> headed ->
// fetched -> verified -> persisted -> done. It performs at most one whole-
// body retry on a checksum mismatch in download/dry-run mode (spec §7); in
// ModeChecksum a mismatch (or a missing local file) is immediately fatal.
func Run(ctx context.Context, deps Deps, v version.V, record manifest.AssetRecord, mode Mode) error {
	url := deps.Resolver.BlobURL(v, record.RemoteFile)
	path := deps.Tree.AssetPath(uint64(v), record.Name)

	head, err := deps.Client.Head(ctx, url)
	if err != nil {
		return err
	}
	expected, err := checksum.FromHeader(head.Header, url)
	if err != nil {
		return err
	}

	if mode == ModeChecksum {
		return runChecksumMode(path, record, expected)
	}

	// HEAD-skip is skipped in dry-run: the point of --dry-run is to
	// exercise fetch+verify against the network, not to report what's
	// already on disk (spec §4.7 step 2).
	if mode != ModeDryRun && localMatches(path, expected) {
		deps.Sink.Tick(record.Name, 0, progress.StatusSkipped)
		return nil
	}

	body, err := fetchAndVerify(ctx, deps.Client, url)
	if err != nil {
		// one whole-body retry on checksum mismatch, per spec §7.
		if isChecksumMismatch(err) {
			body, err = fetchAndVerify(ctx, deps.Client, url)
		}
		if err != nil {
			deps.Sink.Tick(record.Name, 0, progress.StatusFailed)
			return err
		}
	}

	if mode == ModeDryRun {
		deps.Sink.Tick(record.Name, int64(len(body)), progress.StatusCompleted)
		return nil
	}

	if err := deps.Tree.WriteAtomic(uint64(v), record.Name, body); err != nil {
		deps.Sink.Tick(record.Name, 0, progress.StatusFailed)
		return err
	}
	deps.Sink.Tick(record.Name, int64(len(body)), progress.StatusCompleted)
	return nil
}

// runChecksumMode asserts the local file exists and matches the expected
// digest, without touching the network body.
func runChecksumMode(path string, record manifest.AssetRecord, expected checksum.Digest) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return &pipelineerrors.ChecksumMismatch{URL: path, Expected: record.Hash, Actual: checksum.Digest{}}
	}
	actual := checksum.OfBytes(body)
	if !actual.Equal(expected) {
		return &pipelineerrors.ChecksumMismatch{URL: path, Expected: expected, Actual: actual}
	}
	return nil
}

// localMatches reports whether the file at path already has content
// matching expected, implementing the HEAD-skip short-circuit.
func localMatches(path string, expected checksum.Digest) bool {
	body, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return checksum.OfBytes(body).Equal(expected)
}

func fetchAndVerify(ctx context.Context, client *httpclient.Client, url string) ([]byte, error) {
	resp, body, err := client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := checksum.Verify(resp.Header, body, url); err != nil {
		return nil, err
	}
	return body, nil
}

func isChecksumMismatch(err error) bool {
	_, ok := err.(*pipelineerrors.ChecksumMismatch)
	return ok
}
