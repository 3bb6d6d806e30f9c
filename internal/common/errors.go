// Package common defines sentinel errors shared by the repository layer.
// Callers match them with errors.Is.
package common

import "errors"

var (
	// ErrorNotFound is returned by repositories when a row is absent.
	ErrorNotFound = errors.New("not found")

	// ErrorInternal hides unexpected failures from clients.
	ErrorInternal = errors.New("internal error")
)
