// Package api carries the closed configuration record shared by every
// layer of the pipeline. It plays the same role as the teacher repo's
// api.GlobalConfig: a single struct that can be populated from flags, a
// JSON config file, or hand-built in tests, then validated once before use.
package api

import (
	"errors"
	"strings"
)

// Options configures a single run of the mirror pipeline. Once constructed
// and validated, it is read-only for the lifetime of the run.
type Options struct {
	// Output is the root directory the mirrored tree is written under.
	Output string `json:"output,omitempty"`
	// Parallelism is the number of concurrent asset jobs per version (P).
	// Zero means "use the host CPU count".
	Parallelism int `json:"parallelism,omitempty"`
	// DryRun fetches and verifies blobs but never writes them to disk.
	DryRun bool `json:"dry_run,omitempty"`
	// Checksum runs in verification-only mode: nothing is written, and any
	// local/manifest digest mismatch is fatal.
	Checksum bool `json:"checksum,omitempty"`
	// Latest restricts selection to the single latest published version.
	Latest bool `json:"latest,omitempty"`
	// KeepManifest retains the raw manifest bytes alongside the version's
	// assets instead of discarding them after decode.
	KeepManifest bool `json:"keep_manifest,omitempty"`
	// Variant selects the OS sub-path segment ("android" or "ios").
	Variant string `json:"variant,omitempty"`
	// CatalogBase is the base URL of the version-catalog JSON service.
	CatalogBase string `json:"catalog_base,omitempty"`
	// CDNBase is the base URL of the manifest/blob CDN.
	CDNBase string `json:"cdn_base,omitempty"`
	// RetryBudget is the number of retries (R) the HTTP client allows
	// after the first attempt.
	RetryBudget int `json:"retry_budget,omitempty"`
	// LogLevel is one of "error", "warning", "basic", "debug".
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultOptions returns the baseline configuration, matching spec.md's
// stated defaults (R=3, P=host CPU count represented here as 0).
func DefaultOptions() Options {
	return Options{
		Output:      "./assets",
		Parallelism: 0,
		Variant:     "android",
		CatalogBase: "https://catalog.example.test",
		CDNBase:     "https://cdn.example.test",
		RetryBudget: 3,
		LogLevel:    "basic",
	}
}

// Validate rejects configurations the pipeline cannot act on.
func (o Options) Validate() error {
	var issues []string
	if o.Output == "" {
		issues = append(issues, "output must be provided")
	}
	if o.Parallelism < 0 {
		issues = append(issues, "parallelism must not be negative")
	}
	switch o.Variant {
	case "android", "ios": // allowed
	default:
		issues = append(issues, `variant must be one of "android", "ios"`)
	}
	if o.CatalogBase == "" {
		issues = append(issues, "catalog_base must be provided")
	}
	if o.CDNBase == "" {
		issues = append(issues, "cdn_base must be provided")
	}
	if o.RetryBudget < 0 {
		issues = append(issues, "retry_budget must not be negative")
	}
	if o.Checksum && o.DryRun {
		issues = append(issues, "checksum and dry_run are mutually exclusive")
	}
	switch o.LogLevel {
	case "", "error", "warning", "basic", "debug": // allowed
	default:
		issues = append(issues, `log_level must be one of "error", "warning", "basic", "debug"`)
	}
	if len(issues) > 0 {
		return errors.New("options validation failed:\n  " + strings.Join(issues, "\n  "))
	}
	return nil
}
