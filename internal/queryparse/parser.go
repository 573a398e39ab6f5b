// Package queryparse turns one CLI query line into search criteria.
//
// Grammar, by example:
//
//	elf princess tags:fantasy,magic -tags:horror sort:rating page:2 nsfw:on
//
// Bare words accumulate into the free-text term; field:value pairs set the
// corresponding criteria field. Unknown fields are kept as plain words so a
// term like "re:zero" still searches.
package queryparse

import (
	"strconv"
	"strings"

	"chublink/internal/chub"
)

// ==========================================
// PUBLIC API
// ==========================================

// Parse — точка входа. Создает лексер и собирает Criteria.
func Parse(input string) chub.Criteria {
	p := &Parser{l: NewLexer(input)}
	p.nextToken()
	return p.parseCriteria()
}

// ==========================================
// PARSER LOGIC
// ==========================================

type Parser struct {
	l      *Lexer
	curTok Token
}

func (p *Parser) nextToken() {
	p.curTok = p.l.NextToken()
}

func (p *Parser) parseCriteria() chub.Criteria {
	crit := chub.Criteria{Page: 1}
	var words []string

	for p.curTok.Type != TokenEOF {
		switch p.curTok.Type {
		case TokenField:
			field := p.curTok.Value
			p.nextToken() // eat field
			value := ""
			if p.curTok.Type == TokenString {
				value = p.curTok.Value
				p.nextToken() // eat value
			}
			if !applyField(&crit, field, value) {
				// not one of ours; keep the original text as a search word
				words = append(words, field+":"+value)
			}
		default:
			words = append(words, p.curTok.Value)
			p.nextToken()
		}
	}

	crit.SearchTerm = strings.Join(words, " ")
	return crit
}

func applyField(crit *chub.Criteria, field, value string) bool {
	switch strings.ToLower(field) {
	case "tags", "tag":
		crit.IncludeTags = append(crit.IncludeTags, splitTags(value)...)
	case "-tags", "-tag", "xtags":
		crit.ExcludeTags = append(crit.ExcludeTags, splitTags(value)...)
	case "sort":
		if chub.IsValidSort(value) {
			crit.Sort = value
		}
	case "page":
		if n, err := strconv.Atoi(value); err == nil {
			crit.Page = n
			if crit.Page < 1 {
				crit.Page = 1
			}
		}
	case "nsfw":
		crit.NSFW = parseBoolish(value)
		crit.NSFWSet = true
	case "first", "count":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			crit.First = n
		}
	default:
		return false
	}
	return true
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBoolish(s string) bool {
	switch strings.ToLower(s) {
	case "on", "yes", "y":
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
