package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rewind/internal/compiler"
	"github.com/roach88/rewind/internal/snapshot"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledKind is one kind with its TypeKey, in declaration order.
type CompiledKind struct {
	Spec    compiler.KindSpec
	TypeKey string
}

// Value returns the plain form written by compile: the spec plus its TypeKey.
func (k CompiledKind) Value() snapshot.Object {
	obj := k.Spec.Value()
	obj["type_key"] = snapshot.String(k.TypeKey)
	return obj
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <kinds-dir>",
		Short: "Compile CUE kind declarations to canonical JSON",
		Long: `Compile CUE kind declarations to canonical JSON.

Each kind is validated, built, and printed with the TypeKey that its
snapshots are tagged with.

Examples:
  rewind compile ./kinds
  rewind compile ./kinds -o kinds.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, kindsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadKinds(kindsDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, kindsDir)

	if verrs := compiler.Validate(loaded.Kinds); len(verrs) > 0 {
		return outputValidationErrors(formatter, issuesFrom(verrs))
	}
	cat, err := buildCatalog(loaded.Kinds)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	kinds := make([]CompiledKind, 0, len(loaded.Kinds))
	for _, spec := range loaded.Kinds {
		formatter.VerboseLog("Compiling kind: %s", spec.Name)
		k, _ := cat.Kind(spec.Name)
		kinds = append(kinds, CompiledKind{Spec: spec, TypeKey: k.Key()})
	}

	data, err := canonicalKinds(kinds)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, kinds, data, opts.Output)
}

// canonicalKinds renders kinds as a canonical JSON list.
func canonicalKinds(kinds []CompiledKind) ([]byte, error) {
	list := make(snapshot.List, len(kinds))
	for i, k := range kinds {
		list[i] = k.Value()
	}
	return snapshot.MarshalCanonical(list)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, kinds []CompiledKind, data []byte, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(json.RawMessage(data))
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d kind(s)\n\n", len(kinds))
	fmt.Fprintln(w, "Kinds:")
	for _, k := range kinds {
		fmt.Fprintf(w, "  %s: %d field(s), %s", k.Spec.Name, len(k.Spec.Fields), k.Spec.Model)
		if k.Spec.Composite {
			fmt.Fprintf(w, ", composite %v", k.Spec.Children)
		}
		if k.Spec.DebounceMS > 0 {
			fmt.Fprintf(w, ", debounce %dms", k.Spec.DebounceMS)
		}
		fmt.Fprintf(w, "\n    type key %s\n", k.TypeKey)
	}
	fmt.Fprintln(w)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote canonical kinds to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputLoadError outputs a LoadKinds or LoadCatalog failure, with the CUE
// position in text mode when one is known.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}
	if formatter.Format != "json" && loadErr.Pos.IsValid() {
		fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
			loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
	}
	return outputCompileError(formatter, loadErr.Code, loadErr.Message)
}
