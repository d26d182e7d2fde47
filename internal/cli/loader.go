package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/rewind/internal/compiler"
	"github.com/roach88/rewind/internal/observe"
)

// LoadResult contains the kinds compiled from a directory.
type LoadResult struct {
	Kinds     []compiler.KindSpec
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred while loading kinds.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadKinds checks dir and compiles the CUE kinds it declares. Failures are
// returned as *LoadError with a CLI error code.
func LoadKinds(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("kinds directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing kinds directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	specs, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &LoadResult{Kinds: specs, FileCount: len(files)}, nil
}

// LoadCatalog loads dir and builds its kinds on a manual scheduler, which is
// enough for kinds that are rebuilt rather than driven live.
func LoadCatalog(dir string) (*compiler.Catalog, error) {
	res, err := LoadKinds(dir)
	if err != nil {
		return nil, err
	}
	return buildCatalog(res.Kinds)
}

func buildCatalog(specs []compiler.KindSpec) (*compiler.Catalog, error) {
	cat, err := compiler.Build(specs, observe.NewManual())
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidKinds, Message: err.Error()}
	}
	return cat, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeNoKinds      = "E008" // No top-level kind field
	ErrCodeInvalidKinds = "E009" // Kinds failed validation

	// Declaration errors without a compiler validation code.
	ErrCodeInvalidField = "E109" // Reserved or non-concrete field default
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeBuildFailed
	case "kind":
		return ErrCodeNoKinds
	case "name":
		return compiler.ErrKindNameInvalid
	case "fields":
		return ErrCodeInvalidField
	case "model":
		return compiler.ErrInvalidModel
	case "debounce_ms":
		return compiler.ErrNegativeDebounce
	case "children":
		return compiler.ErrChildrenNotAllowed
	default:
		return ErrCodeGeneric
	}
}
