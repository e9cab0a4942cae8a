package middleware

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ValidateFormat checks if the report format is in the allowed list
func ValidateFormat(format string) error {
	if format == "" {
		return nil // empty defaults to comprehensive
	}
	allowed := map[string]bool{
		"comprehensive": true,
		"pci-dss":       true,
		"3ds":           true,
		"sox":           true,
		"json":          true,
	}

	if !allowed[strings.ToLower(format)] {
		return fmt.Errorf("invalid format: %s (allowed: comprehensive, pci-dss, 3ds, sox, json)", format)
	}
	return nil
}

// ValidateURL validates and sanitizes URLs
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("URL must carry a host")
	}

	return nil
}

// ValidateServiceName validates the analysis target. Targets name Kubernetes
// services, so the DNS label rules apply.
func ValidateServiceName(name string) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}

	pattern := `^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`
	matched, _ := regexp.MatchString(pattern, name)
	if !matched {
		return fmt.Errorf("invalid service name format (lowercase alphanumeric and dashes, max 63 chars)")
	}

	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}

	// Allow alphanumeric, dash, underscore (max 64 chars)
	pattern := `^[a-zA-Z0-9_-]{1,64}$`
	matched, _ := regexp.MatchString(pattern, tenant)
	if !matched {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}

	return nil
}

// ValidateRunID validates run ID format
func ValidateRunID(runID string) error {
	if runID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	// UUID pattern with target suffix: uuid-target
	pattern := `^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}-.+$`
	matched, _ := regexp.MatchString(pattern, runID)
	if !matched {
		return fmt.Errorf("invalid run ID format")
	}

	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
