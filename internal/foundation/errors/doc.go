// Package errors provides classified errors for sitebuilder.
//
// An error carries a category, a severity, a retryable flag and key/value
// context. Categories decide the process exit code of a failed command and
// the status code the preview server answers with.
//
//	err := errors.WrapError(cause, errors.CategoryBuild, "css tool failed").
//		WithContext("command", argv).
//		Build()
package errors
