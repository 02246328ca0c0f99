package dataset

import (
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
)

// Sentinels for errors.Is. Errors returned by Load carry the specific path,
// column or row in their message and Context.
var (
	ErrDatasetNotFound = &apierrors.AppError{Type: apierrors.ErrTypeNotFound}
	ErrParse           = &apierrors.AppError{Type: apierrors.ErrTypeParsing}
	ErrSchema          = &apierrors.AppError{Type: apierrors.ErrTypeSchema}
)
