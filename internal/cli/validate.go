package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rewind/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Kinds  int               `json:"kinds"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in the kind declarations.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <kinds-dir>",
		Short: "Validate kind declarations without building them",
		Long: `Validate CUE kind declarations without building them.

Checks CUE syntax, field defaults, models, debounce delays and child
tables across every kind in the directory.

Exit codes:
  0 - All kinds valid
  1 - Validation errors
  2 - Command error (missing directory, no CUE files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, kindsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	issues, count, err := ValidateKindsDir(kindsDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Validated %d kind(s) in %s", count, kindsDir)

	if len(issues) > 0 {
		return outputValidationErrors(formatter, issues)
	}
	return outputValidateSuccess(formatter, count)
}

// ValidateKindsDir validates the kinds declared in dir. Declaration errors
// are returned as issues; a missing or empty directory is returned as error.
func ValidateKindsDir(dir string) ([]ValidationIssue, int, error) {
	loaded, err := LoadKinds(dir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && isDeclarationError(loadErr.Code) {
			return []ValidationIssue{{
				Code:    loadErr.Code,
				Field:   "load",
				Message: loadErr.Message,
				Line:    lineOf(loadErr),
			}}, 0, nil
		}
		return nil, 0, err
	}
	return issuesFrom(compiler.Validate(loaded.Kinds)), len(loaded.Kinds), nil
}

// isDeclarationError reports whether code describes the CUE content rather
// than the directory.
func isDeclarationError(code string) bool {
	switch code {
	case ErrCodeNotFound, ErrCodeScanError, ErrCodeNoFiles:
		return false
	}
	return true
}

func lineOf(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

func issuesFrom(verrs []compiler.ValidationError) []ValidationIssue {
	issues := make([]ValidationIssue, len(verrs))
	for i, v := range verrs {
		issues[i] = ValidationIssue{Code: v.Code, Field: v.Field, Message: v.Message}
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, kinds int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Kinds: kinds})
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d kind(s) valid\n", kinds)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Field, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
