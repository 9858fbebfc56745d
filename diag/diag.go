// Package diag carries the device-wide error accumulator, reset-cause
// classification and the fatal-error path.
package diag

// ErrorCode is a bitmask of failure kinds accumulated over one transfer pass.
type ErrorCode uint16

const (
	ErrNone            ErrorCode = 0x0000
	ErrSDNotFound      ErrorCode = 0x0001
	ErrSDFileNotFound  ErrorCode = 0x0002
	ErrFlashNotFound   ErrorCode = 0x0004
	ErrTransferFailure ErrorCode = 0x0008
	ErrCRCFailure      ErrorCode = 0x0010
	ErrHALFailure      ErrorCode = 0x1000
	ErrFault           ErrorCode = 0x2000
	ErrAssertion       ErrorCode = 0x4000
	ErrSleepFailure    ErrorCode = 0x8000
)

// Accumulator collects error bits within one pass. Previous bits are
// unaffected by further accumulation until Reset.
type Accumulator struct {
	code ErrorCode
}

// Accumulate ORs an error kind into the mask.
func (a *Accumulator) Accumulate(e ErrorCode) {
	a.code |= e
}

// Code returns the accumulated mask.
func (a *Accumulator) Code() ErrorCode {
	return a.code
}

// Reset clears the mask. Errors from a previous run must be cleared at the
// end of every pass.
func (a *Accumulator) Reset() {
	a.code = ErrNone
}

// StatusString renders a module status for the console transcript. nil is
// success across the code base; any error is a failure.
func StatusString(err error) string {
	if err == nil {
		return "Success"
	}
	return "Failure"
}
