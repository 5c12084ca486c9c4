// Package selection implements interactive/non-interactive narrowing of
// manifest candidates to the subset actually processed (spec §4.5). The
// Chooser interface is the seam: production code uses a survey-backed
// implementation, tests substitute a scripted fake.
package selection

import (
	"fmt"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/dustin/go-humanize"

	"github.com/cdnmirror/mirrorctl/manifest"
)

// Mode selects how candidates are narrowed.
type Mode int

const (
	// ModeInteractive presents a multi-select prompt via Chooser.
	ModeInteractive Mode = iota
	// ModeLatest passes candidates through unchanged: the pipeline has
	// already restricted them to a single, latest-only entry.
	ModeLatest
	// ModeChecksum keeps only candidates whose version directory already
	// exists under the output root.
	ModeChecksum
)

// Chooser presents candidates to an operator and returns the approved
// subset. Implementations may re-prompt internally (e.g. on a declined
// confirmation) but must eventually return or fail.
type Chooser interface {
	Choose(candidates []manifest.Manifest) ([]manifest.Manifest, error)
}

// Select narrows candidates according to mode.
func Select(mode Mode, candidates []manifest.Manifest, chooser Chooser, versionDirExists func(manifest.Manifest) bool) ([]manifest.Manifest, error) {
	switch mode {
	case ModeLatest:
		return candidates, nil
	case ModeChecksum:
		selected := make([]manifest.Manifest, 0, len(candidates))
		for _, candidate := range candidates {
			if versionDirExists(candidate) {
				selected = append(selected, candidate)
			}
		}
		return selected, nil
	default:
		return chooser.Choose(candidates)
	}
}

// SurveyChooser is the interactive Chooser backing normal (non-flag-driven)
// runs: a multi-select sorted most-recent-first, followed by a confirm
// prompt that re-presents the multi-select if declined.
type SurveyChooser struct{}

func (SurveyChooser) Choose(candidates []manifest.Manifest) ([]manifest.Manifest, error) {
	sorted := sortDescending(candidates)
	labels := make([]string, len(sorted))
	byLabel := make(map[string]manifest.Manifest, len(sorted))
	for i, m := range sorted {
		label := fmt.Sprintf("%d (%d file, %s)", m.Descriptor.Version, len(m.Entries), humanize.Bytes(m.TotalBytes()))
		labels[i] = label
		byLabel[label] = m
	}

	for {
		var chosenLabels []string
		prompt := &survey.MultiSelect{
			Message: "Select versions to mirror:",
			Options: labels,
		}
		if err := survey.AskOne(prompt, &chosenLabels); err != nil {
			return nil, err
		}

		confirmed := false
		confirmPrompt := &survey.Confirm{Message: "Proceed with the selected versions?"}
		if err := survey.AskOne(confirmPrompt, &confirmed); err != nil {
			return nil, err
		}
		if !confirmed {
			continue
		}

		chosen := make([]manifest.Manifest, 0, len(chosenLabels))
		for _, label := range chosenLabels {
			chosen = append(chosen, byLabel[label])
		}
		return chosen, nil
	}
}

func sortDescending(candidates []manifest.Manifest) []manifest.Manifest {
	sorted := make([]manifest.Manifest, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Descriptor.Version > sorted[j].Descriptor.Version
	})
	return sorted
}
