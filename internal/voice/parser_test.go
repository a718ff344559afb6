package voice

import (
	"errors"
	"testing"

	"taktsiv/internal/core"
)

func TestParseTranscript(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		amount   int64
		category core.Category
		note     string
	}{
		{"amount with shekel word", "50 שקל דלק", 50, core.CategoryFuel, ""},
		{"exact name beats earlier synonym", "50 קפה דלק", 50, core.CategoryFuel, "קפה"},
		{"exact name later in transcript", "150 קפה עם חברים", 150, core.CategoryFriends, "קפה עם"},
		{"synonym only", "150 קפה עם רותי", 150, core.CategoryRestaurants, "עם רותי"},
		{"plural shekel word", "200 שקלים מכולת", 200, core.CategoryGroceries, ""},
		{"exact category", "80 סופר", 80, core.CategoryGroceries, ""},
		{"multi word category", "120 טיפוח והנעלה", 120, core.CategoryGrooming, ""},
		{"multi word synonym", "75 אוכל בחוץ", 75, core.CategoryRestaurants, ""},
		{"fuel synonym", "300 תדלוק בדרך", 300, core.CategoryFuel, "בדרך"},
		{"note around category", "45 שקל בנזין לרכב", 45, core.CategoryFuel, "לרכב"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTranscript(tc.in)
			if err != nil {
				t.Fatalf("ParseTranscript(%q): %v", tc.in, err)
			}
			if got.Amount != core.FromShekels(tc.amount) {
				t.Errorf("amount = %v, want ₪%d", got.Amount, tc.amount)
			}
			if got.Category != tc.category {
				t.Errorf("category = %q, want %q", got.Category, tc.category)
			}
			if got.Note != tc.note {
				t.Errorf("note = %q, want %q", got.Note, tc.note)
			}
		})
	}
}

func TestParseTranscriptNoAmount(t *testing.T) {
	got, err := ParseTranscript("קניתי דלק היום")
	if !errors.Is(err, ErrNoAmount) {
		t.Fatalf("error = %v, want ErrNoAmount", err)
	}
	if got.Amount != (core.Money{}) {
		t.Errorf("amount = %v, want zero", got.Amount)
	}
	if got.Note != "קניתי דלק היום" {
		t.Errorf("note = %q, want full transcript", got.Note)
	}
}

func TestParseTranscriptNoCategory(t *testing.T) {
	got, err := ParseTranscript("60 שקל משהו אחר")
	if !errors.Is(err, ErrNoCategory) {
		t.Fatalf("error = %v, want ErrNoCategory", err)
	}
	if got.Amount != core.FromShekels(60) {
		t.Errorf("amount = %v, want ₪60", got.Amount)
	}
	if got.Note != "משהו אחר" {
		t.Errorf("note = %q", got.Note)
	}
}
