// Package voice turns free-form Hebrew transcripts into pending expenses and
// drives their confirmation lifecycle.
package voice

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"taktsiv/internal/core"
)

var (
	ErrNoAmount   = errors.New("no amount in transcript")
	ErrNoCategory = errors.New("no recognizable category in transcript")
)

// amountRe matches the first integer token, optionally followed by a shekel
// word that is consumed together with it.
var amountRe = regexp.MustCompile(`(\d+)(\s+שקלים|\s+שקל)?`)

// synonyms maps colloquial words to canonical categories. Synonyms are
// only consulted after the whole transcript has been scanned for exact
// category names.
var synonyms = map[string]core.Category{
	"תדלוק":     core.CategoryFuel,
	"בנזין":     core.CategoryFuel,
	"מסעדה":     core.CategoryRestaurants,
	"אוכל בחוץ": core.CategoryRestaurants,
	"קפה":       core.CategoryRestaurants,
	"חופש":      core.CategoryVacations,
	"נופש":      core.CategoryVacations,
	"טיול":      core.CategoryVacations,
	"בילוי":     core.CategoryOutings,
	"בגד":       core.CategoryClothing,
	"חבר":       core.CategoryFriends,
	"חברה":      core.CategoryFriends,
	"טיפוח":     core.CategoryGrooming,
	"נעליים":    core.CategoryGrooming,
	"מכולת":     core.CategoryGroceries,
	"קניות":     core.CategoryGroceries,
}

// ParsedTransaction is the outcome of transcript parsing. It is kept around
// after cancellation so the manual entry form can be prefilled.
type ParsedTransaction struct {
	Amount   core.Money    `json:"amount"`
	Category core.Category `json:"category,omitempty"`
	Note     string        `json:"note"`
}

// ParseTranscript extracts amount, category and note from a transcript.
//
// The first integer token is the amount in whole shekels (a trailing
// שקל/שקלים is swallowed with it). The remaining tokens are scanned twice:
// a first full pass for exact category names, then a fallback pass for
// synonyms, so an exact name anywhere in the transcript beats an earlier
// synonym. Two-token phrases are tried before single tokens so multi-word
// names match. The matched token(s) are dropped from the note.
//
// On error the returned transaction still carries everything that was
// recognized, for form prefill.
func ParseTranscript(text string) (ParsedTransaction, error) {
	text = strings.TrimSpace(text)
	parsed := ParsedTransaction{Note: text}

	loc := amountRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return parsed, ErrNoAmount
	}
	shekels, err := strconv.ParseInt(text[loc[2]:loc[3]], 10, 64)
	if err != nil || shekels <= 0 {
		return parsed, ErrNoAmount
	}
	parsed.Amount = core.FromShekels(shekels)

	rest := strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])
	tokens := strings.Fields(rest)

	matchAt := -1
	matchLen := 0
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			if c, err := core.ParseCategory(tokens[i] + " " + tokens[i+1]); err == nil {
				parsed.Category = c
				matchAt, matchLen = i, 2
				break
			}
		}
		if c, err := core.ParseCategory(tokens[i]); err == nil {
			parsed.Category = c
			matchAt, matchLen = i, 1
			break
		}
	}
	if matchAt < 0 {
		for i := 0; i < len(tokens); i++ {
			if i+1 < len(tokens) {
				if c, ok := synonyms[tokens[i]+" "+tokens[i+1]]; ok {
					parsed.Category = c
					matchAt, matchLen = i, 2
					break
				}
			}
			if c, ok := synonyms[tokens[i]]; ok {
				parsed.Category = c
				matchAt, matchLen = i, 1
				break
			}
		}
	}

	if matchAt < 0 {
		parsed.Note = rest
		return parsed, ErrNoCategory
	}

	note := append([]string{}, tokens[:matchAt]...)
	note = append(note, tokens[matchAt+matchLen:]...)
	parsed.Note = strings.Join(note, " ")
	return parsed, nil
}
