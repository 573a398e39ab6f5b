package chub

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxEncodedTagLen caps the encoded tag list sent to the search endpoint.
// Truncation may split inside an encoded tag; the endpoint tolerates that
// and the tail tag simply matches nothing.
const maxEncodedTagLen = 100

// DefaultPageSize is used when Criteria.First is unset.
const DefaultPageSize = 10

// BuildQuery turns criteria into the raw query string for the search
// endpoint. Pure string work, no I/O. Values are already percent-encoded,
// so the result is appended to the endpoint URL as-is.
func BuildQuery(c Criteria) string {
	page := c.Page
	if page < 1 {
		page = 1
	}
	first := c.First
	if first <= 0 {
		first = DefaultPageSize
	}
	sort := c.Sort
	if !IsValidSort(sort) {
		sort = SortDownloadCount
	}

	var b strings.Builder
	b.WriteString("namespace=characters")
	if term := strings.TrimSpace(c.SearchTerm); term != "" {
		b.WriteString("&search=")
		b.WriteString(url.QueryEscape(norm.NFC.String(term)))
	}
	b.WriteString("&first=")
	b.WriteString(strconv.Itoa(first))
	b.WriteString("&page=")
	b.WriteString(strconv.Itoa(page))
	b.WriteString("&sort=")
	b.WriteString(sort)
	b.WriteString("&asc=false&venus=true&include_forks=true")
	b.WriteString("&nsfw=")
	b.WriteString(strconv.FormatBool(c.NSFW))
	b.WriteString("&require_images=false&require_custom_prompt=false")
	if enc := EncodeTagList(c.IncludeTags); enc != "" {
		b.WriteString("&tags=")
		b.WriteString(enc)
	}
	if enc := EncodeTagList(c.ExcludeTags); enc != "" {
		b.WriteString("&exclude_tags=")
		b.WriteString(enc)
	}
	return b.String()
}

// SearchURL joins the endpoint base with the built query.
func SearchURL(base string, c Criteria) string {
	return base + "?" + BuildQuery(c)
}

// EncodeTagList trims the tags, drops empty entries, joins the rest with
// commas, percent-encodes and truncates the encoded text to the budget.
// Returns "" when nothing survives, in which case the parameter is omitted.
func EncodeTagList(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		kept = append(kept, norm.NFC.String(t))
	}
	if len(kept) == 0 {
		return ""
	}
	enc := url.QueryEscape(strings.Join(kept, ","))
	if len(enc) > maxEncodedTagLen {
		enc = enc[:maxEncodedTagLen]
	}
	return enc
}
