package chub

import (
	"net/url"
	"strings"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		crit     Criteria
		validate func(*testing.T, string)
	}{
		{
			name: "empty criteria gets fixed params and defaults",
			crit: Criteria{},
			validate: func(t *testing.T, q string) {
				v := mustParse(t, q)
				mustEqual(t, v, "namespace", "characters")
				mustEqual(t, v, "first", "10")
				mustEqual(t, v, "page", "1")
				mustEqual(t, v, "sort", "download_count")
				mustEqual(t, v, "asc", "false")
				mustEqual(t, v, "venus", "true")
				mustEqual(t, v, "include_forks", "true")
				mustEqual(t, v, "nsfw", "false")
				mustEqual(t, v, "require_images", "false")
				mustEqual(t, v, "require_custom_prompt", "false")
				mustAbsent(t, v, "search")
				mustAbsent(t, v, "tags")
				mustAbsent(t, v, "exclude_tags")
			},
		},
		{
			name: "page below one is clamped",
			crit: Criteria{Page: -3},
			validate: func(t *testing.T, q string) {
				mustEqual(t, mustParse(t, q), "page", "1")
			},
		},
		{
			name: "whitespace-only tags omit the parameter",
			crit: Criteria{IncludeTags: []string{"", "   ", "\t"}},
			validate: func(t *testing.T, q string) {
				mustAbsent(t, mustParse(t, q), "tags")
			},
		},
		{
			name: "unknown sort falls back to download_count",
			crit: Criteria{Sort: "coolness"},
			validate: func(t *testing.T, q string) {
				mustEqual(t, mustParse(t, q), "sort", "download_count")
			},
		},
		{
			name: "full criteria scenario",
			crit: Criteria{
				SearchTerm:  "elf",
				IncludeTags: []string{"fantasy", ""},
				ExcludeTags: []string{},
				NSFW:        false,
				Sort:        "rating",
				Page:        2,
			},
			validate: func(t *testing.T, q string) {
				v := mustParse(t, q)
				mustEqual(t, v, "search", "elf")
				mustEqual(t, v, "tags", "fantasy")
				mustAbsent(t, v, "exclude_tags")
				mustEqual(t, v, "page", "2")
				mustEqual(t, v, "sort", "rating")
				mustEqual(t, v, "nsfw", "false")
			},
		},
		{
			name: "search term is percent-encoded",
			crit: Criteria{SearchTerm: "dark elf"},
			validate: func(t *testing.T, q string) {
				if !strings.Contains(q, "search=dark+elf") {
					t.Errorf("expected encoded term in %q", q)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, BuildQuery(tt.crit))
		})
	}
}

func TestEncodeTagListTruncation(t *testing.T) {
	long := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		long = append(long, "волшебство") // multibyte, encodes wide
	}
	enc := EncodeTagList(long)
	if len(enc) > 100 {
		t.Fatalf("encoded tag list is %d chars, budget is 100", len(enc))
	}
	if enc == "" {
		t.Fatal("expected a non-empty truncated list")
	}
}

func TestEncodeTagListJoins(t *testing.T) {
	enc := EncodeTagList([]string{" fantasy ", "", "magic"})
	if enc != "fantasy%2Cmagic" {
		t.Errorf("got %q", enc)
	}
}

func TestAuthorOf(t *testing.T) {
	if got := authorOf("alice/my-character"); got != "alice" {
		t.Errorf(`authorOf("alice/my-character") = %q, want "alice"`, got)
	}
	if got := authorOf("solo"); got != "solo" {
		t.Errorf(`authorOf("solo") = %q, want "solo"`, got)
	}
}

// --- helpers ---

func mustParse(t *testing.T, q string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(q)
	if err != nil {
		t.Fatalf("query does not parse: %v", err)
	}
	return v
}

func mustEqual(t *testing.T, v url.Values, key, want string) {
	t.Helper()
	if got := v.Get(key); got != want {
		t.Errorf("param %s = %q, want %q", key, got, want)
	}
}

func mustAbsent(t *testing.T, v url.Values, key string) {
	t.Helper()
	if _, ok := v[key]; ok {
		t.Errorf("param %s should be omitted, got %q", key, v.Get(key))
	}
}
