package api_test

import (
	"testing"

	"github.com/cdnmirror/mirrorctl/api"
)

func TestDefaultOptionsValidate(t *testing.T) {
	if err := api.DefaultOptions().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateRejectsBadVariant(t *testing.T) {
	opts := api.DefaultOptions()
	opts.Variant = "windows"
	if err := opts.Validate(); err == nil {
		t.Fatal("expected an error for an unsupported variant")
	}
}

func TestValidateRejectsChecksumAndDryRun(t *testing.T) {
	opts := api.DefaultOptions()
	opts.Checksum = true
	opts.DryRun = true
	if err := opts.Validate(); err == nil {
		t.Fatal("expected an error when checksum and dry-run are both set")
	}
}

func TestValidateRejectsMissingOutput(t *testing.T) {
	opts := api.DefaultOptions()
	opts.Output = ""
	if err := opts.Validate(); err == nil {
		t.Fatal("expected an error for a missing output directory")
	}
}
