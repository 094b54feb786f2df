package genai

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Quota backoff bounds.
const (
	MinQuotaBackoff     = 30 * time.Second
	DefaultQuotaBackoff = 60 * time.Second
)

var (
	retriableMarkers = []string{"429", "500", "503", "UNAVAILABLE", "RESOURCE_EXHAUSTED", "INTERNAL", "Error fetching"}
	quotaMarkers     = []string{"429", "RESOURCE_EXHAUSTED", "quota"}
	retryInRegex     = regexp.MustCompile(`(?i)retry in (\d+)`)
)

func errStatus(err error) int {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// IsRetriable reports whether err warrants a retry on the fallback model.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	switch errStatus(err) {
	case 429, 500, 503:
		return true
	}
	return containsAny(err.Error(), retriableMarkers)
}

// IsQuota reports whether err signals an exhausted quota.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if errStatus(err) == 429 {
		return true
	}
	return containsAny(err.Error(), quotaMarkers)
}

// QuotaBackoff extracts the provider's "retry in N" hint, floored at
// MinQuotaBackoff, defaulting to DefaultQuotaBackoff.
func QuotaBackoff(err error) time.Duration {
	if err == nil {
		return DefaultQuotaBackoff
	}
	m := retryInRegex.FindStringSubmatch(err.Error())
	if m == nil {
		return DefaultQuotaBackoff
	}
	secs, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return DefaultQuotaBackoff
	}
	d := time.Duration(secs) * time.Second
	if d < MinQuotaBackoff {
		return MinQuotaBackoff
	}
	return d
}
