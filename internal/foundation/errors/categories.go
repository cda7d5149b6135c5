package errors

import "net/http"

// ErrorCategory classifies an error for exit codes, HTTP status codes and
// log routing.
type ErrorCategory string

const (
	// CategoryConfig covers configuration and post content the user must fix.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryNetwork covers icon downloads, pushes and the NATS broker.
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"

	// CategoryBuild covers rendering and the external CSS tool.
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryEventStore ErrorCategory = "eventstore"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

type categoryInfo struct {
	exitCode   int
	httpStatus int
}

var categories = map[ErrorCategory]categoryInfo{
	CategoryValidation: {exitCode: 2, httpStatus: http.StatusBadRequest},
	CategoryNotFound:   {exitCode: 3, httpStatus: http.StatusNotFound},
	CategoryConfig:     {exitCode: 7, httpStatus: http.StatusBadRequest},
	CategoryNetwork:    {exitCode: 8, httpStatus: http.StatusBadGateway},
	CategoryGit:        {exitCode: 8, httpStatus: http.StatusBadGateway},
	CategoryInternal:   {exitCode: 10, httpStatus: http.StatusInternalServerError},
	CategoryBuild:      {exitCode: 11, httpStatus: http.StatusUnprocessableEntity},
	CategoryFileSystem: {exitCode: 11, httpStatus: http.StatusInternalServerError},
	CategoryEventStore: {exitCode: 11, httpStatus: http.StatusInternalServerError},
	CategoryRuntime:    {exitCode: 12, httpStatus: http.StatusServiceUnavailable},
	CategoryDaemon:     {exitCode: 12, httpStatus: http.StatusServiceUnavailable},
}

// ExitCode is the process exit code for errors of this category; 1 when the
// category is unknown.
func (c ErrorCategory) ExitCode() int {
	if info, ok := categories[c]; ok {
		return info.exitCode
	}
	return 1
}

// HTTPStatus is the response status for errors of this category.
func (c ErrorCategory) HTTPStatus() int {
	if info, ok := categories[c]; ok {
		return info.httpStatus
	}
	return http.StatusInternalServerError
}

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops the command
	SeverityError   ErrorSeverity = "error"   // fails the current pipeline
	SeverityWarning ErrorSeverity = "warning" // step continues degraded
	SeverityInfo    ErrorSeverity = "info"
)

// ErrorContext holds structured key/value details such as the file or stage
// an error belongs to.
type ErrorContext map[string]any

// GetString returns a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}
