package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIHostConfigured = errors.New("no API host configured, use 'library config set api_host <url>' or LIBRARY_API_HOST")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidOutputFormat = errors.New("invalid output format, expected table, json or yaml")
	ErrInvalidPageSize     = errors.New("page size must be between 1 and 100")
	ErrInvalidPage         = errors.New("page must be at least 1")
	ErrInvalidRateLimit    = errors.New("rate limit must be a non-negative number of requests per second")
)

// Command errors.
var (
	ErrDeleteNotConfirmed = errors.New("delete not confirmed")
	ErrConfirmRequiresTTY = errors.New("refusing to delete without confirmation on a non-interactive terminal, use --force")
	ErrNothingToUpdate    = errors.New("nothing to update, pass at least one field flag")
	ErrBrowseRequiresTTY  = errors.New("browse requires an interactive terminal")
)

// Upload errors.
var (
	ErrPrivateKeyRequired = errors.New("imagekit private key is required")
	ErrPublicKeyRequired  = errors.New("imagekit public key is required")
	ErrUploadAuthFailed   = errors.New("failed to get upload authentication parameters")
	ErrUploadFailed       = errors.New("upload failed")
	ErrFileRequired       = errors.New("a file is required")
)
