package genai

import (
	"errors"
	"testing"
	"time"
)

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("[GoogleGenerativeAI Error]: 503 Service Unavailable"), true},
		{errors.New("status: UNAVAILABLE"), true},
		{errors.New("Error fetching from generativelanguage"), true},
		{errors.New("INTERNAL"), true},
		{&BackendError{Status: 500, Message: "boom"}, true},
		{&BackendError{Status: 429, Message: "slow down"}, true},
		{&BackendError{Status: 400, Message: "bad request"}, false},
		{errors.New("invalid argument"), false},
	}
	for _, tt := range tests {
		if got := IsRetriable(tt.err); got != tt.want {
			t.Errorf("IsRetriable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestIsQuota(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("RESOURCE_EXHAUSTED"), true},
		{errors.New("You exceeded your current quota"), true},
		{&BackendError{Status: 429}, true},
		{errors.New("503 Service Unavailable"), false},
	}
	for _, tt := range tests {
		if got := IsQuota(tt.err); got != tt.want {
			t.Errorf("IsQuota(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestQuotaBackoff(t *testing.T) {
	tests := []struct {
		err  error
		want time.Duration
	}{
		{errors.New("quota exceeded, please retry in 45s"), 45 * time.Second},
		{errors.New("Please Retry In 5 seconds"), MinQuotaBackoff},
		{errors.New("quota exceeded"), DefaultQuotaBackoff},
		{nil, DefaultQuotaBackoff},
	}
	for _, tt := range tests {
		if got := QuotaBackoff(tt.err); got != tt.want {
			t.Errorf("QuotaBackoff(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
