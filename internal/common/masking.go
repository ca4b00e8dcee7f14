package common

import (
	"regexp"
	"strings"
	"sync"
)

const maskedValue = "***MASKED***"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "client_secret")
	Regex       *regexp.Regexp // Matches sensitive data inside free text
	Replacement string         // Replacement string
	Keys        []string       // Attribute keys whose values are always masked (case-insensitive)
}

// DefaultSensitivePatterns covers the values that flow through a token provider:
// bearer tokens, raw JWTs, client secrets and passwords.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)(["'\s]*[:=]["'\s]*)([^"',}\]\s&]+)`),
		Replacement: "${1}${2}" + maskedValue,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "secret",
		Regex:       regexp.MustCompile(`(?i)(client[_-]?secret|secret)(["'\s]*[:=]["'\s]*)([^"',}\]\s&]+)`),
		Replacement: "${1}${2}" + maskedValue,
		Keys:        []string{"secret", "client_secret", "client-secret"},
	},
	{
		Name:        "token",
		Regex:       regexp.MustCompile(`(?i)(access[_-]?token|id[_-]?token|token)(["'\s]*[:=]["'\s]*)([^"',}\]\s&]+)`),
		Replacement: "${1}${2}" + maskedValue,
		Keys:        []string{"token", "access_token", "id_token", "access-token"},
	},
	{
		Name:        "authorization",
		Regex:       nil,
		Replacement: maskedValue,
		Keys:        []string{"authorization"},
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer " + maskedValue,
	},
	{
		Name:        "jwt",
		Regex:       regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`),
		Replacement: maskedValue,
	},
}

// Masker handles masking of sensitive information in logs
type Masker struct {
	mu       sync.RWMutex
	patterns []SensitivePattern
	enabled  bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return NewMaskerWithPatterns(DefaultSensitivePatterns)
}

// NewMaskerWithPatterns creates a new masker with custom patterns
func NewMaskerWithPatterns(patterns []SensitivePattern) *Masker {
	cp := make([]SensitivePattern, len(patterns))
	copy(cp, patterns)
	return &Masker{
		patterns: cp,
		enabled:  true,
	}
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()
}

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return input
	}
	result := input
	for _, p := range m.patterns {
		if p.Regex == nil {
			continue
		}
		result = p.Regex.ReplaceAllString(result, p.Replacement)
	}
	return result
}

// IsSensitiveKey reports whether values stored under key must always be masked.
func (m *Masker) IsSensitiveKey(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return false
	}
	lowerKey := strings.ToLower(strings.TrimSpace(key))
	for _, p := range m.patterns {
		for _, k := range p.Keys {
			if lowerKey == strings.ToLower(k) {
				return true
			}
		}
	}
	return false
}

// MaskValue masks a value based on its key and content
func (m *Masker) MaskValue(key string, value string) string {
	if m.IsSensitiveKey(key) {
		return maskedValue
	}
	return m.MaskString(value)
}

// Global masker instance
var globalMasker = NewMasker()

// SetGlobalMasker sets the global masker instance
func SetGlobalMasker(masker *Masker) {
	if masker == nil {
		return
	}
	globalMasker = masker
}

// GetGlobalMasker returns the global masker instance
func GetGlobalMasker() *Masker {
	return globalMasker
}

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}
