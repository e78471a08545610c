package sprout

import "errors"

var (
	// ErrNoTarget is returned when a command needs a target and none of the
	// resolution steps found one.
	ErrNoTarget = errors.New("sprout: no target found")

	// ErrInvalidOrdinal is returned when an ordinal phrase points past the end
	// of its candidate list.
	ErrInvalidOrdinal = errors.New("sprout: ordinal out of range")

	// ErrUnsupportedMaterial is returned when a mutation field or effect needs
	// a material channel the node does not have.
	ErrUnsupportedMaterial = errors.New("sprout: unsupported material property")

	// ErrGenerationFailed wraps a failed or empty upstream generation.
	ErrGenerationFailed = errors.New("sprout: generation failed")

	// ErrDisposed is returned when an operation targets a disposed record.
	ErrDisposed = errors.New("sprout: object disposed")

	// ErrNothingPending is returned by Confirm and Cancel when no action waits
	// for confirmation.
	ErrNothingPending = errors.New("sprout: nothing pending")

	// ErrEmptyCommand is returned for a submission that is only whitespace.
	ErrEmptyCommand = errors.New("sprout: empty command")
)

// ErrorCode returns a short stable name for the sentinel err wraps, for
// scripts and CLI output. It returns "" for nil and "error" for anything
// else.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoTarget):
		return "no-target"
	case errors.Is(err, ErrInvalidOrdinal):
		return "invalid-ordinal"
	case errors.Is(err, ErrUnsupportedMaterial):
		return "unsupported-material"
	case errors.Is(err, ErrGenerationFailed):
		return "generation-failed"
	case errors.Is(err, ErrDisposed):
		return "disposed"
	case errors.Is(err, ErrNothingPending):
		return "nothing-pending"
	case errors.Is(err, ErrEmptyCommand):
		return "empty-command"
	}
	return "error"
}
