package rss

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"pressfeed/models"
)

// Data is the complete input of one feed build: channel-level metadata
// plus the page of posts resolved for the channel. Everything in here
// affects the generated document, which makes its hash a valid cache key.
type Data struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Version     string        `json:"version"`
	SiteUrl     string        `json:"siteUrl"`
	FeedUrl     string        `json:"feedUrl"`
	Secure      bool          `json:"secure"`
	Posts       []models.Post `json:"posts"`
}

// Hash returns a deterministic content hash over the full build input.
// Struct field order fixes the serialization order, so equal inputs
// always produce equal hashes.
func (d Data) Hash() string {
	serialized, _ := json.Marshal(d)
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:])
}
