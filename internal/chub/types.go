package chub

import (
	"encoding/json"
	"strings"
)

// Sort keys accepted by the CHub search endpoint.
const (
	SortDownloadCount     = "download_count"
	SortID                = "id"
	SortRating            = "rating"
	SortDefault           = "default"
	SortRatingCount       = "rating_count"
	SortLastActivity      = "last_activity_at"
	SortTrendingDownloads = "trending_downloads"
	SortCreatedAt         = "created_at"
	SortName              = "name"
	SortTokens            = "n_tokens"
	SortRandom            = "random"
)

// SortKeys lists every accepted sort key, in the order the UI presents them.
var SortKeys = []string{
	SortDownloadCount, SortID, SortRating, SortDefault, SortRatingCount,
	SortLastActivity, SortTrendingDownloads, SortCreatedAt, SortName,
	SortTokens, SortRandom,
}

// IsValidSort reports whether key is one of the accepted sort keys.
func IsValidSort(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Criteria describes one search invocation. Zero values are usable:
// an empty term searches everything, Page below 1 is treated as 1,
// an empty or unknown Sort falls back to download_count.
type Criteria struct {
	SearchTerm  string
	IncludeTags []string
	ExcludeTags []string
	NSFW        bool
	NSFWSet     bool // true when NSFW was given explicitly rather than defaulted
	Sort        string
	Page        int
	First       int // page size; 0 means the configured default
}

// CharacterSummary is the display-ready projection of one search hit.
type CharacterSummary struct {
	ID          string
	FullPath    string // "<author>/<slug>", the primary key
	Name        string
	Tagline     string
	Description string
	Author      string
	Tags        []string
	Avatar      *Avatar // nil when the avatar fetch failed or returned no image
}

// PageURL returns the character's public page on chub.ai.
func (s CharacterSummary) PageURL() string {
	return PublicPageURL(s.FullPath)
}

// PublicPageURL builds the public chub.ai page for a fullPath.
func PublicPageURL(fullPath string) string {
	return "https://www.chub.ai/characters/" + fullPath
}

// Avatar holds a fetched thumbnail.
type Avatar struct {
	Data        []byte
	ContentType string
}

// flexID tolerates the remote id field arriving as a number or a string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// node is the raw search hit shape returned inside data.nodes.
type node struct {
	ID          flexID   `json:"id"`
	FullPath    string   `json:"fullPath"`
	Name        string   `json:"name"`
	Tagline     string   `json:"tagline"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	AvatarURL   string   `json:"avatar_url"`
}

// authorOf extracts the author segment of a fullPath ("alice/my-char" -> "alice").
func authorOf(fullPath string) string {
	if i := strings.Index(fullPath, "/"); i >= 0 {
		return fullPath[:i]
	}
	return fullPath
}
