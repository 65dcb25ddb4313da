// Package errorutil holds the small helpers used to attach context to errors
// as they cross package boundaries.
package errorutil

import "fmt"

// Wrap annotates err with msg. It returns nil if err is nil so it can be used
// directly in return statements.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
