package domain

import "errors"

var (
	ErrDownloadFailed      = errors.New("document download failed")
	ErrDownloadTimeout     = errors.New("document download timed out")
	ErrUnsupportedScheme   = errors.New("unsupported document URL scheme")
	ErrDocumentTooLarge    = errors.New("document exceeds maximum allowed size")
	ErrInvalidDocument     = errors.New("document bytes are not a renderable PDF or image")
	ErrRenderFailed        = errors.New("page rendering failed")
	ErrRendererUnavailable = errors.New("page renderer is unavailable")
	ErrSolverUnavailable   = errors.New("optimization solver is unavailable")
	ErrSolverInfeasible    = errors.New("no feasible selection exists")
)
