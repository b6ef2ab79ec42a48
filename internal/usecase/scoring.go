package usecase

import (
	"strings"

	"github.com/medifocal/catalog/internal/domain"
)

// Name tiers are exclusive: only the first one that applies contributes.
const (
	scoreNameExact     = 1000
	scoreNamePrefix    = 500
	scoreNameAllWords  = 300
	scoreWordProximity = 100
	scoreNameSubstring = 200
	scoreWordPrefix    = 50
	scoreWordContains  = 25
)

// Field bonuses are added on top of the name tier.
const (
	scoreItemNumberExact    = 400
	scoreItemNumberContains = 100
	scoreCategory           = 30
	scoreManufacturer       = 20
	scoreDescription        = 10
)

// SearchQuery is a normalized free-text query
type SearchQuery struct {
	Text  string
	Words []string
}

// ParseSearchQuery lower-cases and trims the raw query and splits it into words.
// ok is false when nothing searchable remains.
func ParseSearchQuery(raw string) (SearchQuery, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	words := strings.Fields(text)
	if text == "" || len(words) == 0 {
		return SearchQuery{}, false
	}
	return SearchQuery{Text: text, Words: words}, true
}

// ScoreProduct computes the relevance of a product for a query. Zero means no match.
func ScoreProduct(q SearchQuery, p *domain.Product) int {
	if q.Text == "" {
		return 0
	}

	score := scoreName(q, strings.ToLower(p.Name))

	itemNumber := strings.ToLower(p.ItemNumber)
	if itemNumber != "" {
		if itemNumber == q.Text {
			score += scoreItemNumberExact
		} else if strings.Contains(itemNumber, q.Text) {
			score += scoreItemNumberContains
		}
	}

	if strings.Contains(strings.ToLower(p.Category), q.Text) {
		score += scoreCategory
	}
	if strings.Contains(strings.ToLower(p.Manufacturer), q.Text) {
		score += scoreManufacturer
	}
	if strings.Contains(strings.ToLower(p.Description), q.Text) {
		score += scoreDescription
	}

	return score
}

// scoreName evaluates the name tiers against an already lower-cased name.
// The all-words tier needs at least two words; a single word is scored as a substring.
func scoreName(q SearchQuery, name string) int {
	if name == "" {
		return 0
	}

	switch {
	case name == q.Text:
		return scoreNameExact
	case strings.HasPrefix(name, q.Text):
		return scoreNamePrefix
	case len(q.Words) > 1 && containsAllWords(name, q.Words):
		score := scoreNameAllWords
		if wordsAreClose(name, q) {
			score += scoreWordProximity
		}
		return score
	case strings.Contains(name, q.Text):
		return scoreNameSubstring
	}

	nameWords := strings.Fields(name)
	score := 0
	for _, word := range q.Words {
		switch {
		case anyWord(nameWords, word, strings.HasPrefix):
			score += scoreWordPrefix
		case anyWord(nameWords, word, strings.Contains):
			score += scoreWordContains
		}
	}
	return score
}

// containsAllWords checks that every search word appears somewhere in s
func containsAllWords(s string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

// wordsAreClose measures from the first occurrence of the first word to the
// last occurrence of the last word. A reversed order yields a negative span
// and counts as close.
func wordsAreClose(name string, q SearchQuery) bool {
	first := strings.Index(name, q.Words[0])
	last := strings.LastIndex(name, q.Words[len(q.Words)-1])
	if first < 0 || last < 0 {
		return false
	}
	return last-first < 2*len(q.Text)
}

func anyWord(nameWords []string, word string, match func(string, string) bool) bool {
	for _, nw := range nameWords {
		if match(nw, word) {
			return true
		}
	}
	return false
}
