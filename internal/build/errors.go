package build

import "errors"

// Sentinel domain errors used to classify high-level pipeline failures.
// They are always wrapped with contextual information at the call site.
var (
	ErrLoad   = errors.New("sitebuilder: post load error")
	ErrRender = errors.New("sitebuilder: render error")
	ErrInject = errors.New("sitebuilder: inject error")
)
