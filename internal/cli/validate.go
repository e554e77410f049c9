package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternlang/tern/internal/manifest"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E002" // Manifest load failed
	ErrCodeCompile     = "E003" // Manifest compile error
	ErrCodeValidation  = "E004" // Manifest validation error
	ErrCodeQueryFailed = "E010" // A query failed (cycle, unsupported, ...)
	ErrCodeStore       = "E020" // Dep-graph store error
)

// ValidationSummary is the data payload of a successful validate run.
type ValidationSummary struct {
	Crates       int    `json:"crates"`
	Defs         int    `json:"defs"`
	ManifestHash string `json:"manifest_hash"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest-dir>",
		Short: "Validate crate manifests without running queries",
		Long: `Validate CUE crate manifests: structure, def kinds, path
uniqueness, and member resolution. Faster than resolve for
development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, err := manifest.LoadDir(dir)
	if err != nil {
		code := classifyManifestError(err)
		formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "validation failed", err)
	}

	formatter.VerboseLog("Loaded %d crate(s) from %s", len(m.Crates), dir)

	summary := ValidationSummary{
		Crates:       len(m.Crates),
		Defs:         m.DefCount(),
		ManifestHash: m.Hash,
	}

	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	formatter.Textf("Valid: %d crate(s), %d def(s)\n", summary.Crates, summary.Defs)
	formatter.Textf("Manifest hash: %s\n", summary.ManifestHash)
	return nil
}

func classifyManifestError(err error) string {
	var compileErr *manifest.CompileError
	if errors.As(err, &compileErr) {
		return ErrCodeCompile
	}
	var validationErr *manifest.ValidationError
	if errors.As(err, &validationErr) {
		return ErrCodeValidation
	}
	return ErrCodeLoadFailed
}

// loadManifestOrExit is the shared load step for resolve.
func loadManifestOrExit(formatter *OutputFormatter, dir string) (*manifest.Manifest, error) {
	m, err := manifest.LoadDir(dir)
	if err != nil {
		code := classifyManifestError(err)
		formatter.Error(code, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("loading manifests from %s", dir), err)
	}
	return m, nil
}
