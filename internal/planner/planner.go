// Package planner orchestrates the trip-planning pipeline: preference
// interpretation, destination resolution, budget estimation, itinerary
// generation and expert refinement.
//
// The stage graph is fixed. Preference and geo run first (cheap and
// synchronous), then budget estimation and itinerary generation run
// concurrently, then the expert pass refines the narrative. Only the
// itinerary stage is fatal; every other stage degrades to a note on the
// result.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/planit-dev/planit/internal/genai"
	"github.com/planit-dev/planit/internal/knowledge"
	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/trip"
)

// Planner wires the pipeline stages to their dependencies.
type Planner struct {
	gen    genai.Generator
	store  knowledge.Store // nil disables knowledge retrieval
	logger log.Logger
	topK   int
}

// New creates a planner. store may be nil, in which case itineraries are
// generated and refined without retrieved local knowledge.
func New(gen genai.Generator, store knowledge.Store, topK int, logger log.Logger) *Planner {
	if logger == nil {
		logger = log.NewNop()
	}
	if topK < 1 {
		topK = 5
	}
	return &Planner{
		gen:    gen,
		store:  store,
		logger: logger.With("component", "planner"),
		topK:   topK,
	}
}

// GeneratePlan runs the full pipeline for a request.
//
// Validation failures return a *trip.Error with KindValidation before any
// stage runs. An itinerary generation failure returns KindGeneration.
// Geo, budget and expert failures never fail the plan; they surface as
// notes on the result.
func (p *Planner) GeneratePlan(ctx context.Context, req trip.Request) (*trip.PlanResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prefs := InterpretPreferences(req)

	var (
		place *Place
		notes []string
	)
	if resolved, err := ResolvePlace(req.Destination); err == nil {
		place = &resolved
	} else {
		p.logger.Info("destination not in gazetteer, planning without geographic context",
			"destination", req.Destination)
		notes = append(notes, fmt.Sprintf("destination %q not recognized; cost estimates use global averages", req.Destination))
	}

	passages := p.retrieve(ctx, req, prefs)

	// Budget estimation and itinerary generation are independent; run
	// them concurrently. Budget is pure computation but kept in the
	// fan-out so the stage graph stays uniform.
	var (
		wg        sync.WaitGroup
		budget    *trip.BudgetAnalysis
		narrative string
		genErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		budget = EstimateBudget(req, place)
	}()
	go func() {
		defer wg.Done()
		narrative, genErr = generateItinerary(ctx, p.gen, req, prefs, place, passages)
	}()
	wg.Wait()

	if genErr != nil {
		p.logger.Error("itinerary generation failed", "destination", req.Destination, "error", genErr)
		var pe *genai.ProviderError
		msg := "itinerary generation failed"
		if errors.As(genErr, &pe) {
			msg = fmt.Sprintf("itinerary generation failed (%s)", pe.Code)
		}
		return nil, &trip.Error{Kind: trip.KindGeneration, Message: msg}
	}

	var expertNotes []string
	narrative, expertNotes = refineItinerary(ctx, p.gen, p.store, req, narrative, budget)
	notes = append(notes, expertNotes...)

	p.logger.Info("plan generated",
		"destination", req.Destination,
		"days", req.Days,
		"narrative_bytes", len(narrative),
		"degraded", len(notes) > 0,
	)

	return &trip.PlanResult{
		Itinerary: narrative,
		Budget:    budget,
		Notes:     notes,
	}, nil
}

// retrieve fetches knowledge passages for the itinerary prompt. The
// query carries the traveler's interests so the nearest passages lean
// toward what they care about. Retrieval failures are logged and
// ignored; the prompt just gets less context.
func (p *Planner) retrieve(ctx context.Context, req trip.Request, prefs Preferences) []knowledge.Result {
	if p.store == nil {
		return nil
	}
	query := "local tips and etiquette for " + req.Destination
	if len(prefs.Interests) > 0 {
		query += ", focused on " + strings.Join(prefs.Interests, ", ")
	}
	dest := strings.ToLower(strings.TrimSpace(req.Destination))
	passages, err := p.store.Search(ctx, query,
		knowledge.WithDestination(dest), knowledge.WithTopK(p.topK))
	if err != nil {
		p.logger.Warn("knowledge retrieval failed", "destination", req.Destination, "error", err)
		return nil
	}
	if len(passages) == 0 {
		passages, err = p.store.Search(ctx, "general travel advice",
			knowledge.WithDestination("default"), knowledge.WithTopK(p.topK))
		if err != nil {
			p.logger.Warn("knowledge retrieval failed", "destination", req.Destination, "error", err)
			return nil
		}
	}
	return passages
}
