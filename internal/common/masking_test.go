package common

import (
	"strings"
	"testing"
)

func TestMasker_MaskString(t *testing.T) {
	masker := NewMasker()

	tests := []struct {
		name     string
		input    string
		contains string
		absent   string
	}{
		{
			name:     "password in JSON",
			input:    `{"username": "admin", "password": "secret123"}`,
			contains: "***MASKED***",
			absent:   "secret123",
		},
		{
			name:     "bearer token",
			input:    `Authorization: Bearer abc.def-ghi`,
			contains: "Bearer ***MASKED***",
			absent:   "abc.def-ghi",
		},
		{
			name:     "raw jwt",
			input:    `issued eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.sig for resource`,
			contains: "***MASKED***",
			absent:   "eyJzdWIiOiJ4In0",
		},
		{
			name:     "client secret",
			input:    `client_secret=very_secret_value&grant_type=client_credentials`,
			contains: "grant_type=client_credentials",
			absent:   "very_secret_value",
		},
		{
			name:     "no sensitive data",
			input:    `resolved base url https://graph.microsoft.com`,
			contains: "https://graph.microsoft.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := masker.MaskString(tt.input)
			if !strings.Contains(result, tt.contains) {
				t.Errorf("MaskString() result %q should contain %q", result, tt.contains)
			}
			if tt.absent != "" && strings.Contains(result, tt.absent) {
				t.Errorf("MaskString() result %q should not contain %q", result, tt.absent)
			}
		})
	}
}

func TestMasker_MaskValue_SensitiveKeys(t *testing.T) {
	masker := NewMasker()
	if got := masker.MaskValue("Authorization", "anything"); got != "***MASKED***" {
		t.Fatalf("expected authorization value masked, got %q", got)
	}
	if got := masker.MaskValue("access_token", "t0k"); got != "***MASKED***" {
		t.Fatalf("expected access_token masked, got %q", got)
	}
	if got := masker.MaskValue("base_url", "https://graph.microsoft.com"); got != "https://graph.microsoft.com" {
		t.Fatalf("expected base_url untouched, got %q", got)
	}
}

func TestMasker_Disabled(t *testing.T) {
	masker := NewMasker()
	masker.SetEnabled(false)
	if masker.IsEnabled() {
		t.Fatal("expected masker disabled")
	}
	in := "Bearer abc"
	if got := masker.MaskString(in); got != in {
		t.Fatalf("disabled masker changed input: %q", got)
	}
	if masker.IsSensitiveKey("token") {
		t.Fatal("disabled masker should not flag keys")
	}
}
