package runtime

import (
	"errors"
	"io"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/output"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 2
	ExitNotFound    = 3
	ExitAuth        = 4
	ExitNetwork     = 5
	ExitPersistence = 6
)

// Command errors.
var (
	// ErrAborted is returned when the user declines a confirmation.
	ErrAborted = errors.New("aborted")
	// ErrConfirmationRequired is returned when a destructive command runs
	// without a terminal and without --force.
	ErrConfirmationRequired = errors.New("confirmation required")
)

func init() {
	apperrors.Suggestions[ErrConfirmationRequired] = "Not running in a terminal: pass --force to delete without a prompt."
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrAborted) {
		return ExitOK
	}
	if errors.Is(err, ErrConfirmationRequired) {
		return ExitUsage
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return ExitUsage
	case apperrors.KindNotFound:
		return ExitNotFound
	case apperrors.KindAuth:
		return ExitAuth
	case apperrors.KindNetwork:
		return ExitNetwork
	case apperrors.KindPersistence:
		return ExitPersistence
	default:
		return ExitError
	}
}

// FormatError formats an error with its suggestion for the terminal.
func FormatError(err error) string {
	return apperrors.FormatByCategory(err)
}

// ReportError writes err in the requested format: an error object for JSON,
// a styled message otherwise.
func ReportError(w io.Writer, format output.Format, color output.ColorMode, err error) {
	if err == nil {
		return
	}
	f := &output.Formatter{Writer: w, Format: format, ColorMode: color}
	if f.IsJSON() {
		output.NewJSONFormatter(f).PrintError(apperrors.KindOf(err).String(), err.Error(), apperrors.GetSuggestion(err))
		return
	}
	output.NewCLIFormatter(f).Error(FormatError(err))
}
