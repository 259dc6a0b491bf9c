package internal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/limengmingx/stixtoneolib/internal/graph"
	"github.com/limengmingx/stixtoneolib/internal/ingest"
	"github.com/limengmingx/stixtoneolib/internal/mapper"
	"github.com/limengmingx/stixtoneolib/internal/stix"
	"github.com/limengmingx/stixtoneolib/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitPartial indicates the run completed but some objects were skipped
	ExitPartial = 2
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitInputError indicates the input could not be read or understood
	ExitInputError = 11
	// ExitStorageError indicates a graph storage error
	ExitStorageError = 12
	// ExitLedgerError indicates a run-ledger database error
	ExitLedgerError = 13
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// HandleError handles an error and returns the appropriate exit code.
// It also prints the error message to the command's error output.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for context cancellation
	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	// Check for context deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	// Check for CLIError
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil {
			verboseFlag := cmd.Flag("verbose")
			if verboseFlag != nil && verboseFlag.Changed {
				cmd.PrintErrln("Cause:", cliErr.Cause)
			}
		}
		return cliErr.Code
	}

	// Check for StixError
	var stixErr *types.StixError
	if errors.As(err, &stixErr) {
		exitCode := mapStixErrorToExitCode(stixErr)
		cmd.PrintErrln("Error:", stixErr.Error())

		// Print the underlying cause in verbose mode
		verboseFlag := cmd.Flag("verbose")
		if verboseFlag != nil && verboseFlag.Changed && stixErr.Cause != nil {
			cmd.PrintErrln("Cause:", stixErr.Cause)
		}

		return exitCode
	}

	// Generic error
	cmd.PrintErrln("Error:", err)
	return ExitError
}

// mapStixErrorToExitCode maps StixError codes to CLI exit codes
func mapStixErrorToExitCode(err *types.StixError) int {
	switch err.Code {
	case types.CONFIG_LOAD_FAILED,
		types.CONFIG_PARSE_FAILED,
		types.CONFIG_VALIDATION_FAILED,
		types.CONFIG_NOT_FOUND:
		return ExitConfigError
	case types.INPUT_OPEN_FAILED,
		types.INPUT_READ_FAILED,
		types.INPUT_UNSUPPORTED,
		types.INPUT_RESET_FAILED,
		stix.ErrCodeParseDocumentFailed,
		stix.ErrCodeParseNotBundle,
		stix.ErrCodeParseObjectFailed,
		stix.ErrCodeParseMissingField:
		return ExitInputError
	case graph.ErrCodeGraphConnectionFailed,
		graph.ErrCodeGraphConnectionLost,
		graph.ErrCodeGraphConnectionClosed,
		graph.ErrCodeGraphInvalidConfig,
		graph.ErrCodeGraphQueryFailed,
		graph.ErrCodeGraphQueryTimeout,
		graph.ErrCodeGraphInvalidQuery,
		graph.ErrCodeGraphResultParsing,
		graph.ErrCodeGraphNodeNotFound,
		graph.ErrCodeGraphNodeCreateFailed,
		graph.ErrCodeGraphNodeDeleteFailed,
		graph.ErrCodeGraphRelationshipCreateFailed,
		graph.ErrCodeGraphRelationshipDeleteFailed,
		mapper.ErrCodeMapUnknownType,
		mapper.ErrCodeMapUnresolvedReference,
		mapper.ErrCodeMapNodeFailed,
		mapper.ErrCodeMapEdgeFailed,
		mapper.ErrCodeMapCustomEncode,
		ingest.ErrCodeIngestInvalidState,
		ingest.ErrCodeIngestStorageFailed:
		return ExitStorageError
	case types.DB_OPEN_FAILED,
		types.DB_MIGRATION_FAILED,
		types.DB_QUERY_FAILED:
		return ExitLedgerError
	default:
		return ExitError
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag.
// This is used for panic recovery to determine if stack traces should be shown.
func IsVerbose() bool {
	// Check environment variable
	if os.Getenv("STIXTONEO_VERBOSE") != "" {
		return true
	}

	// Check common verbose flag patterns
	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}

	return false
}
