package server

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/iwvelando/budget-allocation/internal/config"
	"github.com/iwvelando/budget-allocation/pkg/constants"
)

// Options defines runtime parameters for the HTTP server.
type Options struct {
	Address      string
	MaxBodyBytes int64
	Version      string
}

// NewOptions derives server options from the application configuration,
// filling defaults for anything left empty.
func NewOptions(cfg config.ServerConfig, version string) (Options, error) {
	opts := Options{
		Address:      strings.TrimSpace(cfg.Address),
		MaxBodyBytes: constants.DefaultMaxBodySizeBytes,
		Version:      strings.TrimSpace(version),
	}
	if opts.Address == "" {
		opts.Address = constants.DefaultServerAddress
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	size, err := ParseSize(cfg.MaxBodySize)
	if err != nil {
		return Options{}, err
	}
	if size > 0 {
		opts.MaxBodyBytes = size
	}
	return opts, nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
