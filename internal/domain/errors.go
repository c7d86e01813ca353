package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrSubmission         = errors.New("submission failed")
	ErrPoll               = errors.New("status check failed")
	ErrProcessing         = errors.New("processing failed")
	ErrGalleryUnavailable = errors.New("gallery unavailable")
)
