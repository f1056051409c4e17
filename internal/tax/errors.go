package tax

import (
	"fmt"
	"strings"
)

// InputError marks a caller-supplied validation failure (bad month or
// malformed wallet address). Handlers map it to a 400; everything else is
// treated as an internal failure.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

func validateMonth(month int) error {
	if month < 1 || month > 12 {
		return &InputError{Reason: fmt.Sprintf("month must be between 1 and 12, got %d", month)}
	}
	return nil
}

func validateWallet(address string) error {
	if address == "" {
		return &InputError{Reason: "wallet address is required"}
	}
	if strings.ContainsAny(address, " \t\n") || len(address) < 4 {
		return &InputError{Reason: fmt.Sprintf("malformed wallet address %q", address)}
	}
	return nil
}
