package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is applied by the CLI; the library itself sets no timeout.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as fetching upload auth parameters.
	ShortHTTPTimeout = 10 * time.Second

	// UploadHTTPTimeout bounds a single file upload.
	UploadHTTPTimeout = 2 * time.Minute
)

// Retry limits.
const (
	// ReadRetryMax is the number of automatic retries for a list or detail read.
	ReadRetryMax = 1

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// RateLimitBurst is how many requests may go out back to back when rate_limit is set.
	RateLimitBurst = 5
)

// Query cache windows.
const (
	// ListStaleTime is how long a list entry is served without a background refetch.
	ListStaleTime = 30 * time.Second

	// DetailStaleTime is how long a book detail entry stays fresh.
	DetailStaleTime = 5 * time.Minute

	// GCTime is how long an unobserved entry is kept before eviction.
	GCTime = 5 * time.Minute

	// PersistTTL is the lifetime of entries written to a persistent cache backend.
	PersistTTL = 24 * time.Hour
)

// Pagination and display limits.
const (
	// DefaultPage is the first page.
	DefaultPage = 1

	// DefaultPageSize is the default number of books per page.
	DefaultPageSize = 10

	// MaxPageSize caps the page size accepted by the CLI.
	MaxPageSize = 100

	// PagerWindow is the number of pages shown in full before the pager collapses with ellipses.
	PagerWindow = 7
)

// Notification durations.
const (
	// ValidationToastDuration keeps field-level errors visible longer.
	ValidationToastDuration = 8 * time.Second

	// ErrorToastDuration is used for every other error kind.
	ErrorToastDuration = 5 * time.Second

	// WarningToastDuration is used for warnings.
	WarningToastDuration = 4 * time.Second
)

// Upload constants.
const (
	// UploadTokenLifetime is how long signed upload parameters stay valid.
	UploadTokenLifetime = 30 * time.Minute

	// UploadFolder is where book covers are stored.
	UploadFolder = "/book-covers"

	// UploadTags are attached to every uploaded cover.
	UploadTags = "book,cover"

	// DefaultUploadURL is the storage provider's upload endpoint.
	DefaultUploadURL = "https://upload.imagekit.io/api/v1/files/upload"

	// UploadAuthPath is the path the auth endpoint is served on.
	UploadAuthPath = "/api/imagekit/auth"

	// DefaultAuthServerAddr is the listen address of `library upload auth-server`.
	DefaultAuthServerAddr = ":3001"
)

// UI and display constants.
const (
	// CheckMarkSymbol is used to indicate current/active items.
	CheckMarkSymbol = "✓"

	// Ellipsis marks collapsed pager ranges.
	Ellipsis = "..."

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// None is used when no value is present.
	None = "none"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// ComingSoon is printed by placeholder sections.
	ComingSoon = "coming soon"
)

// Boolean string constants.
const (
	// BooleanTrue string representation.
	BooleanTrue = "true"

	// BooleanFalse string representation.
	BooleanFalse = "false"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)
