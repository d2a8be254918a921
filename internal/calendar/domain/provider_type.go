package domain

import (
	"fmt"
	"strings"
)

// ProviderType identifies which external calendar service holds an account.
type ProviderType string

const (
	// ProviderGoogle is Google Calendar (OAuth2 + Google Calendar API).
	ProviderGoogle ProviderType = "google"
	// ProviderMicrosoft is Microsoft Outlook/365 (OAuth2 + Microsoft Graph API).
	ProviderMicrosoft ProviderType = "microsoft"
	// ProviderApple is Apple Calendar (CalDAV with app-specific password).
	ProviderApple ProviderType = "apple"
	// ProviderCalDAV is generic CalDAV (Fastmail, Nextcloud, self-hosted).
	ProviderCalDAV ProviderType = "caldav"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}

// IsValid reports whether the provider type is one the fetcher can reach.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderMicrosoft, ProviderApple, ProviderCalDAV:
		return true
	default:
		return false
	}
}

// RequiresOAuth reports whether events are read with an OAuth2 bearer token.
func (p ProviderType) RequiresOAuth() bool {
	switch p {
	case ProviderGoogle, ProviderMicrosoft:
		return true
	default:
		return false
	}
}

// RequiresCalDAV reports whether events are read over CalDAV with basic auth.
func (p ProviderType) RequiresCalDAV() bool {
	switch p {
	case ProviderApple, ProviderCalDAV:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable name for the provider.
func (p ProviderType) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google Calendar"
	case ProviderMicrosoft:
		return "Microsoft Outlook"
	case ProviderApple:
		return "Apple Calendar"
	case ProviderCalDAV:
		return "CalDAV"
	default:
		return string(p)
	}
}

// ParseProviderType parses a provider name case-insensitively.
// "outlook" and "icloud" are accepted as aliases.
func ParseProviderType(s string) (ProviderType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "outlook", "office365":
		return ProviderMicrosoft, nil
	case "icloud":
		return ProviderApple, nil
	}
	p := ProviderType(name)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidProvider, s)
	}
	return p, nil
}
