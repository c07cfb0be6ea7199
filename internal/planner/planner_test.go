package planner

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/planit-dev/planit/internal/genai"
	"github.com/planit-dev/planit/internal/knowledge"
	"github.com/planit-dev/planit/internal/trip"
)

// fakeGen scripts Generate calls for the orchestrator tests.
type fakeGen struct {
	fn func(ctx context.Context, req genai.Request) (string, error)
}

func (f *fakeGen) Generate(ctx context.Context, req genai.Request) (string, error) {
	return f.fn(ctx, req)
}

// fakeStore is a canned knowledge store keyed by destination. Queries
// embed the destination name, so matching on the query text is enough.
type fakeStore struct {
	byDest  map[string][]knowledge.Result
	err     error
	queries []string
}

func (f *fakeStore) Search(_ context.Context, query string, _ ...knowledge.SearchOption) ([]knowledge.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	q := strings.ToLower(query)
	for dest, results := range f.byDest {
		if dest != "default" && strings.Contains(q, dest) {
			return results, nil
		}
	}
	if strings.Contains(q, "general travel advice") {
		return f.byDest["default"], nil
	}
	return nil, nil
}

func (f *fakeStore) Upsert(context.Context, knowledge.Passage) error { return nil }
func (f *fakeStore) Count(context.Context) (int, error)              { return 0, nil }
func (f *fakeStore) Delete(context.Context, string) error            { return nil }

func validRequest() trip.Request {
	return trip.Request{
		Destination: "Paris",
		Days:        3,
		Travelers:   2,
		Style:       trip.StyleModerate,
		Interests:   []string{"Food", "museums"},
		StartDate:   "2026-07-10",
	}
}

const draftNarrative = `Day 1: Arrival

**Morning (9:00 AM – 12:00 PM)**
- 9:00 AM – Walk the riverfront

Tip: Carry small change for markets.`

func passage(dest, topic, content string) knowledge.Result {
	return knowledge.Result{
		Passage: knowledge.Passage{
			ID: dest + "-" + topic, Destination: dest,
			Topic: knowledge.Topic(topic), Content: content,
		},
		Similarity: 0.9,
	}
}

const refinedSuffix = "\n- Evening stroll along a street only locals know"

func TestGeneratePlanHappyPath(t *testing.T) {
	var prompts []genai.Request
	gen := &fakeGen{fn: func(_ context.Context, req genai.Request) (string, error) {
		prompts = append(prompts, req)
		if strings.Contains(req.Prompt, "DRAFT ITINERARY:") {
			return draftNarrative + refinedSuffix, nil
		}
		return draftNarrative, nil
	}}
	store := &fakeStore{byDest: map[string][]knowledge.Result{
		"paris": {passage("paris", "local_tips", "Greet shopkeepers with bonjour.")},
	}}

	p := New(gen, store, 5, nil)
	result, err := p.GeneratePlan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if !strings.HasSuffix(result.Itinerary, strings.TrimSpace(refinedSuffix)) {
		t.Errorf("expected refined narrative, got %q", result.Itinerary)
	}
	if result.Budget == nil {
		t.Fatal("expected budget analysis")
	}
	if len(result.Notes) != 0 {
		t.Errorf("unexpected degradation notes: %v", result.Notes)
	}
	if len(prompts) != 2 {
		t.Fatalf("expected 2 generation calls (draft + refine), got %d", len(prompts))
	}
	// The itinerary prompt must carry the retrieved knowledge and the
	// resolved coordinates; the refinement prompt must carry the budget.
	first := prompts[0].Prompt
	if !strings.Contains(first, "bonjour") {
		t.Error("itinerary prompt missing retrieved knowledge")
	}
	if !strings.Contains(first, "France") {
		t.Error("itinerary prompt missing resolved place")
	}
	if !strings.Contains(prompts[1].Prompt, "BUDGET CONSTRAINT") {
		t.Error("refinement prompt missing budget constraint")
	}
}

func TestGeneratePlanRetrievalQueryCarriesInterests(t *testing.T) {
	gen := &fakeGen{fn: func(context.Context, genai.Request) (string, error) {
		return draftNarrative, nil
	}}
	store := &fakeStore{byDest: map[string][]knowledge.Result{
		"paris": {passage("paris", "local_tips", "Markets open early.")},
	}}

	p := New(gen, store, 5, nil)
	if _, err := p.GeneratePlan(context.Background(), validRequest()); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if len(store.queries) == 0 {
		t.Fatal("expected at least one retrieval query")
	}
	q := store.queries[0]
	if !strings.Contains(q, "food") || !strings.Contains(q, "museums") {
		t.Errorf("retrieval query %q missing traveler interests", q)
	}
}

func TestGeneratePlanExpertRunsWithoutStore(t *testing.T) {
	var calls int
	gen := &fakeGen{fn: func(_ context.Context, req genai.Request) (string, error) {
		calls++
		if strings.Contains(req.Prompt, "DRAFT ITINERARY:") {
			return draftNarrative + refinedSuffix, nil
		}
		return draftNarrative, nil
	}}
	p := New(gen, nil, 5, nil)

	result, err := p.GeneratePlan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected draft + refinement calls without a store, got %d", calls)
	}
	if !strings.HasSuffix(result.Itinerary, strings.TrimSpace(refinedSuffix)) {
		t.Errorf("expected refined narrative, got %q", result.Itinerary)
	}
	if len(result.Notes) != 0 {
		t.Errorf("unexpected degradation notes: %v", result.Notes)
	}
}

func TestGeneratePlanValidation(t *testing.T) {
	p := New(&fakeGen{fn: func(context.Context, genai.Request) (string, error) {
		t.Fatal("generator must not be called for an invalid request")
		return "", nil
	}}, nil, 5, nil)

	req := validRequest()
	req.Days = 0
	_, err := p.GeneratePlan(context.Background(), req)
	if !errors.Is(err, trip.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGeneratePlanUnknownDestinationDegrades(t *testing.T) {
	gen := &fakeGen{fn: func(context.Context, genai.Request) (string, error) {
		return draftNarrative, nil
	}}
	p := New(gen, nil, 5, nil)

	req := validRequest()
	req.Destination = "Atlantis"
	result, err := p.GeneratePlan(context.Background(), req)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if len(result.Notes) != 1 || !strings.Contains(result.Notes[0], "Atlantis") {
		t.Errorf("expected unknown-destination note, got %v", result.Notes)
	}
	if result.Budget == nil {
		t.Fatal("budget should still be estimated at the global baseline")
	}
	if got := result.Budget.PerDay[trip.CategoryLodging]; got.Min != 80 || got.Max != 150 {
		t.Errorf("expected unscaled moderate lodging 80-150, got %+v", got)
	}
}

func TestGeneratePlanGenerationFailureIsFatal(t *testing.T) {
	gen := &fakeGen{fn: func(context.Context, genai.Request) (string, error) {
		return "", &genai.ProviderError{Code: genai.CodeExhausted, Err: errors.New("all models failed")}
	}}
	p := New(gen, nil, 5, nil)

	_, err := p.GeneratePlan(context.Background(), validRequest())
	if !errors.Is(err, trip.ErrGenerationFailed) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	var te *trip.Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *trip.Error, got %T", err)
	}
	if !strings.Contains(te.Message, string(genai.CodeExhausted)) {
		t.Errorf("expected provider code in message, got %q", te.Message)
	}
}

func TestGeneratePlanExpertFailureFallsBackToDraft(t *testing.T) {
	gen := &fakeGen{fn: func(_ context.Context, req genai.Request) (string, error) {
		if strings.Contains(req.Prompt, "DRAFT ITINERARY:") {
			return "", errors.New("model unavailable")
		}
		return draftNarrative, nil
	}}
	store := &fakeStore{byDest: map[string][]knowledge.Result{
		"paris": {passage("paris", "hidden_gems", "Covered passages near Grands Boulevards.")},
	}}
	p := New(gen, store, 5, nil)

	result, err := p.GeneratePlan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if result.Itinerary != draftNarrative {
		t.Errorf("expected draft narrative fallback, got %q", result.Itinerary)
	}
	if len(result.Notes) != 1 || !strings.Contains(result.Notes[0], "refinement") {
		t.Errorf("expected refinement note, got %v", result.Notes)
	}
}

func TestGeneratePlanRetrievalFailureIsSilent(t *testing.T) {
	gen := &fakeGen{fn: func(_ context.Context, req genai.Request) (string, error) {
		if strings.Contains(req.Prompt, "LOCAL KNOWLEDGE:") {
			t.Error("prompt should carry no knowledge when retrieval fails")
		}
		if strings.Contains(req.Prompt, "DRAFT ITINERARY:") {
			return draftNarrative, nil
		}
		return draftNarrative, nil
	}}
	p := New(gen, &fakeStore{err: errors.New("connection refused")}, 5, nil)

	result, err := p.GeneratePlan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if result.Itinerary == "" {
		t.Fatal("expected an itinerary despite retrieval failure")
	}
}

func TestInterpretPreferences(t *testing.T) {
	prefs := InterpretPreferences(trip.Request{
		Destination: "Goa",
		Days:        2,
		Travelers:   2,
		Style:       "LUXURY",
		Interests:   []string{"Foodie", "trekking", "food", " ", "Beach"},
		StartDate:   "2026-01-15",
	})

	if prefs.Style != trip.StyleLuxury {
		t.Errorf("style = %s, want luxury", prefs.Style)
	}
	want := []string{"beaches", "food", "hiking"}
	if len(prefs.Interests) != len(want) {
		t.Fatalf("interests = %v, want %v", prefs.Interests, want)
	}
	for i := range want {
		if prefs.Interests[i] != want[i] {
			t.Errorf("interests[%d] = %q, want %q", i, prefs.Interests[i], want[i])
		}
	}
	if prefs.Group != GroupCouple {
		t.Errorf("group = %s, want couple", prefs.Group)
	}
	if prefs.Season != "winter" {
		t.Errorf("season = %q, want winter", prefs.Season)
	}
}

func TestPaceFor(t *testing.T) {
	tests := []struct {
		interests, days int
		want            Pace
	}{
		{8, 3, PacePacked},
		{3, 3, PaceBalanced},
		{1, 5, PaceRelaxed},
		{0, 3, PaceRelaxed},
		{2, 0, PaceBalanced},
	}
	for _, tt := range tests {
		if got := paceFor(tt.interests, tt.days); got != tt.want {
			t.Errorf("paceFor(%d, %d) = %s, want %s", tt.interests, tt.days, got, tt.want)
		}
	}
}

func TestResolvePlace(t *testing.T) {
	t.Run("most populous wins", func(t *testing.T) {
		p, err := ResolvePlace("Paris")
		if err != nil {
			t.Fatal(err)
		}
		if p.Country != "France" {
			t.Errorf("Paris resolved to %s, want France", p.Country)
		}
	})

	t.Run("country qualifier", func(t *testing.T) {
		p, err := ResolvePlace("london, canada")
		if err != nil {
			t.Fatal(err)
		}
		if p.Country != "Canada" {
			t.Errorf("resolved to %s, want Canada", p.Country)
		}
	})

	t.Run("qualifier with no match falls back to population", func(t *testing.T) {
		p, err := ResolvePlace("rome, mars")
		if err != nil {
			t.Fatal(err)
		}
		if p.Country != "Italy" {
			t.Errorf("resolved to %s, want Italy", p.Country)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := ResolvePlace("Atlantis")
		if !errors.Is(err, ErrUnknownDestination) {
			t.Fatalf("expected ErrUnknownDestination, got %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ResolvePlace("   ")
		if !errors.Is(err, ErrUnknownDestination) {
			t.Fatalf("expected ErrUnknownDestination, got %v", err)
		}
	})
}

func TestEstimateBudgetMultiplier(t *testing.T) {
	req := trip.Request{Destination: "Goa", Days: 4, Travelers: 2, Style: trip.StyleBudget}
	place := &Place{Name: "Goa", Multiplier: 0.5}

	analysis := EstimateBudget(req, place)
	lodging := analysis.PerDay[trip.CategoryLodging]
	if lodging.Min != 10 || lodging.Max != 25 {
		t.Errorf("scaled budget lodging = %+v, want 10-25", lodging)
	}
	daily := analysis.DailyPerPerson
	wantMin, wantMax := 30.0, 75.0 // sum of all five categories at 0.5
	if daily.Min != wantMin || daily.Max != wantMax {
		t.Errorf("daily per person = %+v, want %v-%v", daily, wantMin, wantMax)
	}
	if analysis.TotalGroup.Min != wantMin*4*2 {
		t.Errorf("total group min = %v, want %v", analysis.TotalGroup.Min, wantMin*4*2)
	}
}

func TestEstimateBudgetRescalesToStatedBudget(t *testing.T) {
	// Moderate baseline midpoint is 295/day/person. A budget implying
	// 100/day/person is far outside the tolerance, so the estimate must
	// rescale toward it.
	req := trip.Request{
		Destination: "Lisbon", Days: 5, Travelers: 2,
		Style: trip.StyleModerate, Budget: 1000,
	}
	analysis := EstimateBudget(req, nil)

	target := req.Budget / float64(req.Days) / float64(req.Travelers)
	mid := analysis.DailyPerPerson.Mid()
	if gap := math.Abs(mid-target) / target; gap > 0.01 {
		t.Errorf("rescaled midpoint %v not at target %v", mid, target)
	}
}

func TestEstimateBudgetKeepsEstimateWithinTolerance(t *testing.T) {
	// Moderate baseline midpoint is 295. A stated budget implying 300/day
	// is within the 15% tolerance, so no rescale happens.
	req := trip.Request{
		Destination: "Lisbon", Days: 2, Travelers: 1,
		Style: trip.StyleModerate, Budget: 600,
	}
	analysis := EstimateBudget(req, nil)
	if got := analysis.DailyPerPerson.Mid(); got != 295 {
		t.Errorf("midpoint = %v, want unscaled 295", got)
	}
}
