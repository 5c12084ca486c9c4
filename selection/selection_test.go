package selection_test

import (
	"testing"

	"github.com/cdnmirror/mirrorctl/manifest"
	"github.com/cdnmirror/mirrorctl/selection"
	"github.com/cdnmirror/mirrorctl/version"
)

type fakeChooser struct {
	chosen []manifest.Manifest
	err    error
}

func (f fakeChooser) Choose(candidates []manifest.Manifest) ([]manifest.Manifest, error) {
	return f.chosen, f.err
}

func manifestFor(v version.V) manifest.Manifest {
	return manifest.Manifest{Descriptor: version.ManifestDescriptor{Version: v}}
}

func TestSelectLatestPassesThrough(t *testing.T) {
	candidates := []manifest.Manifest{manifestFor(100000)}
	selected, err := selection.Select(selection.ModeLatest, candidates, fakeChooser{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 1 || selected[0].Descriptor.Version != 100000 {
		t.Fatalf("unexpected selection: %+v", selected)
	}
}

func TestSelectChecksumFiltersByExistingDir(t *testing.T) {
	candidates := []manifest.Manifest{manifestFor(100000), manifestFor(90000)}
	exists := func(m manifest.Manifest) bool { return m.Descriptor.Version == 90000 }

	selected, err := selection.Select(selection.ModeChecksum, candidates, fakeChooser{}, exists)
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 1 || selected[0].Descriptor.Version != 90000 {
		t.Fatalf("unexpected selection: %+v", selected)
	}
}

func TestSelectInteractiveDelegatesToChooser(t *testing.T) {
	want := []manifest.Manifest{manifestFor(100000)}
	chooser := fakeChooser{chosen: want}
	selected, err := selection.Select(selection.ModeInteractive, []manifest.Manifest{manifestFor(100000), manifestFor(90000)}, chooser, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 1 || selected[0].Descriptor.Version != 100000 {
		t.Fatalf("unexpected selection: %+v", selected)
	}
}
