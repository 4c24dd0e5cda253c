// Package constants provides shared constants for the budget-allocation application.
package constants

// Section kinds. The order here is the canonical display order.
const (
	SectionFees         = "FEES"
	SectionConsultants  = "CONSULTANTS"
	SectionConstruction = "CONSTRUCTION"
	SectionContingency  = "CONTINGENCY"
)

// Sections lists every section kind in canonical order.
var Sections = []string{SectionFees, SectionConsultants, SectionConstruction, SectionContingency}

// Match statuses for preview lines
const (
	StatusMatched     = "matched"
	StatusSuggested   = "suggested"
	StatusUnallocated = "unallocated"
)

// Stakeholder groups
const (
	GroupConsultant = "consultant"
	GroupContractor = "contractor"
	GroupClient     = "client"
	GroupAuthority  = "authority"
)

// Allocation constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// AdjustPrecision is the number of decimals kept when redistributing after an edit
	AdjustPrecision = 1

	// LeftoverPrecision is the number of decimals kept when spreading unclaimed template percent
	LeftoverPrecision = 2

	// TotalsPrecision is the number of decimals used for section and grand totals
	TotalsPrecision = 1

	// WordOverlapThreshold is the minimum overlap ratio accepted by the word-overlap tier
	WordOverlapThreshold = 0.6

	// PercentTolerance is the tolerance used when comparing percent totals
	PercentTolerance = 0.05
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultPlanFile is the default plan input file name
	DefaultPlanFile = "plan.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Session store defaults
const (
	// SessionBackendMemory keeps preview snapshots in process memory
	SessionBackendMemory = "memory"

	// SessionBackendRedis keeps preview snapshots in Redis
	SessionBackendRedis = "redis"

	// DefaultSessionTTL is how long an untouched preview snapshot is kept
	DefaultSessionTTL = "2h"

	// DefaultSessionKeyPrefix namespaces snapshot keys in Redis
	DefaultSessionKeyPrefix = "allocation:preview:"

	// DefaultRedisAddress is the Redis address used when none is configured
	DefaultRedisAddress = "localhost:6379"
)
