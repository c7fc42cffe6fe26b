package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncompleteRecord reports a media record that cannot be downloaded or
// deobfuscated because its URL or decode key is missing.
var ErrIncompleteRecord = errors.New("media record incomplete")

// UserRecord is one account from a keyword search.
type UserRecord struct {
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	Signature string `json:"signature,omitempty"`
}

// MediaRecord is one media object from an account's home timeline.
type MediaRecord struct {
	ID          string
	Description string
	// CreateTime is the publication time in epoch seconds, 0 when absent.
	CreateTime int64
	MediaURL   string
	URLToken   string
	DecodeKey  string
	// MediaCount is the number of entries in the object's media list; only
	// the first entry is used.
	MediaCount int
}

// FullURL returns the download URL with its access token appended.
func (m MediaRecord) FullURL() string {
	return m.MediaURL + m.URLToken
}

// Validate confirms the record carries everything needed to download and
// deobfuscate it.
func (m MediaRecord) Validate() error {
	switch {
	case m.MediaCount == 0:
		return fmt.Errorf("%w: media %s has no media entries", ErrIncompleteRecord, m.label())
	case strings.TrimSpace(m.MediaURL) == "":
		return fmt.Errorf("%w: media %s has no url", ErrIncompleteRecord, m.label())
	case strings.TrimSpace(m.DecodeKey) == "":
		return fmt.Errorf("%w: media %s has no decode_key", ErrIncompleteRecord, m.label())
	}
	return nil
}

// Usable reports whether Validate would succeed.
func (m MediaRecord) Usable() bool {
	return m.Validate() == nil
}

func (m MediaRecord) label() string {
	if m.ID == "" {
		return "<no id>"
	}
	return m.ID
}
