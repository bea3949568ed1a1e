package domain

import "errors"

var (
	ErrUnsupportedBank   = errors.New("unsupported bank")
	ErrEmptyFile         = errors.New("file is empty")
	ErrInvalidFormat     = errors.New("file format does not match bank")
	ErrInvalidAmount     = errors.New("invalid monetary amount")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrJobNotFound       = errors.New("processing job not found")
	ErrJobNotCancelable  = errors.New("processing job cannot be canceled")
)
