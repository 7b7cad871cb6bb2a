// =============================================================================
// Easy Access Toolkit - Application Errors
// =============================================================================
//
// Categorized errors for every failure the toolkit reports to the operator.
// Each category maps onto a process exit code so scripts driving the CLI can
// tell a missing export apart from a broken output file.
//
// CATEGORIES:
//   configuration : bad or missing settings, mapping file (exit 4)
//   environment   : missing directories, no export found, permissions (exit 2)
//   validation    : unreadable or malformed input sheets (exit 3)
//   augmentation  : review sheet could not be added to an output file (exit 5)
//   internal      : anything else (exit 1)
//
// =============================================================================

package errors

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Category groups errors by their operational meaning.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryEnvironment   Category = "environment"
	CategoryValidation    Category = "validation"
	CategoryAugmentation  Category = "augmentation"
	CategoryInternal      Category = "internal"
)

// Code identifies a specific failure inside a category.
type Code string

const (
	// Configuration
	CodeInvalidConfig  Code = "invalid_config"
	CodeMissingMapping Code = "missing_mapping"
	CodeInvalidMode    Code = "invalid_mode"

	// Environment
	CodeNoExportFound  Code = "no_export_found"
	CodePermission     Code = "permission_denied"
	CodeDirectoryError Code = "directory_error"
	CodeWriteFailed    Code = "write_failed"

	// Validation
	CodeUnreadableSheet Code = "unreadable_sheet"
	CodeEmptySheet      Code = "empty_sheet"
	CodeMissingColumn   Code = "missing_column"

	// Augmentation
	CodeReopenFailed Code = "reopen_failed"
	CodeSaveFailed   Code = "save_failed"

	// Internal
	CodeUnexpected Code = "unexpected_error"
)

// AppError is the error type returned across package boundaries.
type AppError struct {
	Category   Category
	Code       Code
	Message    string
	Suggestion string
	Context    Context
	Cause      error
	StackTrace pkgerrors.StackTrace
}

// Context carries additional key/value details about an error.
type Context map[string]interface{}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s (suggestion: %s)", msg, e.Suggestion)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this error's category.
func (e *AppError) ExitCode() int {
	switch e.Category {
	case CategoryEnvironment:
		return 2
	case CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryAugmentation:
		return 5
	default:
		return 1
	}
}

// WithContext adds a key/value pair to the error context.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion sets a hint for the operator on how to fix the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates an AppError without an underlying cause.
func New(category Category, code Code, message string) *AppError {
	return &AppError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: pkgerrors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap attaches a category and code to an existing error.
// It returns nil when err is nil.
func Wrap(err error, category Category, code Code, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: pkgerrors.WithStack(err).(stackTracer).StackTrace(),
	}
}

func build(category Category, code Code, message string, err error) *AppError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// ConfigurationError reports an invalid or missing setting.
func ConfigurationError(code Code, setting string, err error) *AppError {
	var message, suggestion string

	switch code {
	case CodeMissingMapping:
		message = fmt.Sprintf("department mapping could not be loaded from %s", setting)
		suggestion = "set DEPARTMENT_MAPPING_FILE or --mapping to a JSON object of department -> faculty"
	case CodeInvalidMode:
		message = fmt.Sprintf("unknown processing mode %q", setting)
		suggestion = "use one of: read, export, both"
	default:
		message = fmt.Sprintf("invalid configuration: %s", setting)
		suggestion = "check config.yaml and settings.env"
	}

	return build(CategoryConfiguration, code, message, err).
		WithSuggestion(suggestion).
		WithContext("setting", setting)
}

// EnvironmentError reports a problem with the filesystem the toolkit runs against.
func EnvironmentError(code Code, path string, err error) *AppError {
	var message, suggestion string

	switch code {
	case CodeNoExportFound:
		message = fmt.Sprintf("no export file found in %s", path)
		suggestion = "place the latest CopyRight export (.xlsx, .xlsm or .csv) in the export directory"
	case CodePermission:
		message = fmt.Sprintf("permission denied: %s", path)
		suggestion = "check that the current user can read and write this location"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory not accessible: %s", path)
		suggestion = "ensure the directory exists and is readable"
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to write %s", path)
		suggestion = "check free disk space and that the file is not open in another program"
	default:
		message = fmt.Sprintf("environment error: %s", path)
		suggestion = "check the path and try again"
	}

	return build(CategoryEnvironment, code, message, err).
		WithSuggestion(suggestion).
		WithContext("path", path)
}

// ValidationError reports an input sheet that cannot be used.
func ValidationError(code Code, file string, detail string, err error) *AppError {
	var message, suggestion string

	switch code {
	case CodeUnreadableSheet:
		message = fmt.Sprintf("could not read sheet %s", file)
		suggestion = "make sure the file is a valid .xlsx workbook and not locked"
	case CodeEmptySheet:
		message = fmt.Sprintf("sheet %s contains no rows", file)
		suggestion = "remove the empty file or fill it with data"
	case CodeMissingColumn:
		message = fmt.Sprintf("sheet %s is missing required column(s): %s", file, detail)
		suggestion = "add the missing columns to the sheet header"
	default:
		message = fmt.Sprintf("invalid sheet %s: %s", file, detail)
		suggestion = "check the sheet contents"
	}

	return build(CategoryValidation, code, message, err).
		WithSuggestion(suggestion).
		WithContext("file", file)
}

// AugmentationError reports a failure while adding the review sheet.
func AugmentationError(code Code, file string, err error) *AppError {
	var message string

	switch code {
	case CodeReopenFailed:
		message = fmt.Sprintf("could not reopen %s to add the review sheet", file)
	case CodeSaveFailed:
		message = fmt.Sprintf("could not save review sheet into %s", file)
	default:
		message = fmt.Sprintf("review sheet augmentation failed for %s", file)
	}

	return build(CategoryAugmentation, code, message, err).
		WithSuggestion("files written before this one are kept; fix the problem and re-run").
		WithContext("file", file)
}

// InternalError reports an unexpected failure.
func InternalError(operation string, err error) *AppError {
	return build(CategoryInternal, CodeUnexpected, fmt.Sprintf("unexpected error during %s", operation), err).
		WithSuggestion("this is likely a bug, please report it with the log output").
		WithContext("operation", operation)
}

// =============================================================================
// HELPERS
// =============================================================================

// ExitCode returns the exit code for any error. Errors that are not AppErrors
// map to 1, nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return 1
}

// IsCategory reports whether err is (or wraps) an AppError of the category.
func IsCategory(err error, category Category) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category == category
	}
	return false
}
