package models

import (
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Setting is one stored site setting.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Site setting keys.
const (
	SettingSiteTitle    = "site_title"
	SettingTagline      = "tagline"
	SettingAuthorName   = "author_name"
	SettingAbout        = "about"
	SettingContactEmail = "contact_email"
	SettingSiteURL      = "site_url"
	SettingGitHubURL    = "github_url"
	SettingLinkedInURL  = "linkedin_url"
	SettingMastodonURL  = "mastodon_url"
)

type settingKind int

const (
	settingText settingKind = iota
	settingEmail
	settingURL
)

type settingRule struct {
	kind settingKind
	max  int // runes
}

var settingRules = map[string]settingRule{
	SettingSiteTitle:    {settingText, 120},
	SettingTagline:      {settingText, 280},
	SettingAuthorName:   {settingText, 120},
	SettingAbout:        {settingText, 4096},
	SettingContactEmail: {settingEmail, 254},
	SettingSiteURL:      {settingURL, 2048},
	SettingGitHubURL:    {settingURL, 2048},
	SettingLinkedInURL:  {settingURL, 2048},
	SettingMastodonURL:  {settingURL, 2048},
}

// SettingKeys returns every known setting key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingRules))
	for k := range settingRules {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// NormalizeSetting trims value and checks it against the rule for key.
// Unknown keys, empty values, values over the key's length limit, contact
// addresses that are not a bare mail address and links that are not absolute
// http(s) URLs are rejected with ErrInvalid.
func NormalizeSetting(key, value string) (string, error) {
	rule, ok := settingRules[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q, want one of %s", ErrInvalid, key, strings.Join(SettingKeys(), ", "))
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s must not be empty", ErrInvalid, key)
	}
	if n := utf8.RuneCountInString(value); n > rule.max {
		return "", fmt.Errorf("%w: %s is %d characters, limit %d", ErrInvalid, key, n, rule.max)
	}

	switch rule.kind {
	case settingEmail:
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Name != "" || addr.Address != value {
			return "", fmt.Errorf("%w: %s %q must be a plain mail address", ErrInvalid, key, value)
		}
	case settingURL:
		if !absoluteHTTPURL(value) {
			return "", fmt.Errorf("%w: %s %q must be an absolute http(s) URL", ErrInvalid, key, value)
		}
	}
	return value, nil
}

func absoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
