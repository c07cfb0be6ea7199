package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/planit-dev/planit/internal/itinerary"
	"github.com/planit-dev/planit/internal/knowledge"
	"github.com/planit-dev/planit/internal/planner"
	"github.com/planit-dev/planit/internal/trip"
)

// Handler holds the shared dependencies of the travel tools.
// Tools that need per-session state (the current plan) are built
// separately with a closure, see CurrentPlan.
type Handler struct {
	store knowledge.Store
	topK  int
}

// NewHandler creates the travel tool handler. store may be nil; tools
// that need it report a structured error the model can react to.
func NewHandler(store knowledge.Store, topK int) *Handler {
	if topK < 1 {
		topK = 5
	}
	return &Handler{store: store, topK: topK}
}

// budgetInput are the arguments for recalculate_budget.
type budgetInput struct {
	Destination string  `json:"destination"`
	Days        int     `json:"days"`
	Travelers   int     `json:"travelers"`
	TravelStyle string  `json:"travel_style"`
	Budget      float64 `json:"budget"`
}

// RecalculateBudget builds the budget recomputation tool. It reuses the
// planning estimator, so chat answers and plan responses never disagree
// about costs.
func (h *Handler) RecalculateBudget() *ExecutableTool {
	return NewTool(
		"recalculate_budget",
		"Recalculate the estimated trip budget with a per-day category breakdown. "+
			"Always use this when discussing costs. "+
			"Arguments: destination (string), days (int, required), travelers (int, default 1), "+
			"travel_style (budget|moderate|luxury), budget (number, optional total to fit).",
		func(_ context.Context, in budgetInput) (*trip.BudgetAnalysis, error) {
			if in.Days < 1 {
				return nil, &ToolError{ErrorType: "InvalidArguments", Message: "days must be at least 1"}
			}
			if in.Travelers < 1 {
				in.Travelers = 1
			}
			req := trip.Request{
				Destination: in.Destination,
				Days:        in.Days,
				Travelers:   in.Travelers,
				Style:       trip.NormalizeStyle(in.TravelStyle),
				Budget:      in.Budget,
			}
			var place *planner.Place
			if resolved, err := planner.ResolvePlace(in.Destination); err == nil {
				place = &resolved
			}
			return planner.EstimateBudget(req, place), nil
		},
	)
}

// factsInput are the arguments for lookup_destination_facts.
type factsInput struct {
	Query       string `json:"query"`
	Destination string `json:"destination"`
	TopK        int    `json:"top_k"`
}

// factsOutput is the model-facing shape of a knowledge lookup.
type factsOutput struct {
	Query    string        `json:"query"`
	Passages []factPassage `json:"passages"`
}

type factPassage struct {
	Topic      string  `json:"topic"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// LookupDestinationFacts builds the knowledge search tool.
func (h *Handler) LookupDestinationFacts() *ExecutableTool {
	return NewTool(
		"lookup_destination_facts",
		"Search the destination knowledge base for facts, attractions and advice. "+
			"Arguments: query (string, required), destination (string, optional filter), "+
			"top_k (int, default 5).",
		func(ctx context.Context, in factsInput) (*factsOutput, error) {
			if h.store == nil {
				return nil, &ToolError{ErrorType: "KnowledgeUnavailable", Message: "no knowledge store configured"}
			}
			if strings.TrimSpace(in.Query) == "" {
				return nil, &ToolError{ErrorType: "InvalidArguments", Message: "query is required"}
			}
			topK := in.TopK
			if topK < 1 {
				topK = h.topK
			}
			opts := []knowledge.SearchOption{knowledge.WithTopK(topK)}
			if dest := strings.ToLower(strings.TrimSpace(in.Destination)); dest != "" {
				opts = append(opts, knowledge.WithDestination(dest))
			}
			results, err := h.store.Search(ctx, in.Query, opts...)
			if err != nil {
				return nil, &ToolError{ErrorType: "SearchFailed", Message: err.Error()}
			}
			out := &factsOutput{Query: in.Query, Passages: make([]factPassage, 0, len(results))}
			for _, r := range results {
				out.Passages = append(out.Passages, factPassage{
					Topic:      string(r.Passage.Topic),
					Content:    r.Passage.Content,
					Similarity: r.Similarity,
				})
			}
			return out, nil
		},
	)
}

// tipsInput are the arguments for get_local_tips.
type tipsInput struct {
	Destination string `json:"destination"`
	TipType     string `json:"tip_type"`
}

// tipsOutput groups curated tips by topic.
type tipsOutput struct {
	Destination string              `json:"destination"`
	Tips        map[string][]string `json:"tips"`
}

// LocalTips builds the insider-tips tool over the curated corpus.
func (h *Handler) LocalTips() *ExecutableTool {
	return NewTool(
		"get_local_tips",
		"Get insider tips, hidden gems and money-saving advice from the curated corpus. "+
			"Arguments: destination (string, required), "+
			"tip_type (hidden_gems|local_tips|money_saving|best_times|all, default all).",
		func(ctx context.Context, in tipsInput) (*tipsOutput, error) {
			if h.store == nil {
				return nil, &ToolError{ErrorType: "KnowledgeUnavailable", Message: "no knowledge store configured"}
			}
			if strings.TrimSpace(in.Destination) == "" {
				return nil, &ToolError{ErrorType: "InvalidArguments", Message: "destination is required"}
			}
			results, err := planner.LocalTips(ctx, h.store, in.Destination, h.topK)
			if err != nil {
				return nil, &ToolError{ErrorType: "SearchFailed", Message: err.Error()}
			}

			tipType := strings.ToLower(strings.TrimSpace(in.TipType))
			if tipType == "" {
				tipType = "all"
			}
			out := &tipsOutput{Destination: in.Destination, Tips: make(map[string][]string)}
			for _, r := range results {
				topic := string(r.Passage.Topic)
				if tipType != "all" && topic != tipType {
					continue
				}
				out.Tips[topic] = append(out.Tips[topic], r.Passage.Content)
			}
			if len(out.Tips) == 0 {
				return nil, &ToolError{
					ErrorType: "NoTips",
					Message:   fmt.Sprintf("no %s tips available for %s", tipType, in.Destination),
				}
			}
			return out, nil
		},
	)
}

// planOutput is the model-facing shape of the session's current plan.
type planOutput struct {
	Itinerary itinerary.Itinerary  `json:"itinerary"`
	Budget    *trip.BudgetAnalysis `json:"budget_analysis,omitempty"`
	Notes     []string             `json:"notes,omitempty"`
}

// CurrentPlan builds the plan inspection tool around a session-scoped
// snapshot function. The agent wires it per conversation so the tool sees
// the plan stored in the session being served.
func CurrentPlan(snapshot func(context.Context) (*trip.PlanResult, error)) *ExecutableTool {
	return NewTool(
		"get_current_plan",
		"Get the structured itinerary and budget of the plan already generated in this "+
			"conversation. Use this before answering questions about or modifying the plan. "+
			"No arguments.",
		func(ctx context.Context, _ struct{}) (*planOutput, error) {
			plan, err := snapshot(ctx)
			if err != nil {
				return nil, &ToolError{ErrorType: "PlanUnavailable", Message: err.Error()}
			}
			if plan == nil {
				return nil, &ToolError{ErrorType: "NoPlan", Message: "no plan has been generated in this session yet"}
			}
			return &planOutput{
				Itinerary: itinerary.Structure(plan.Itinerary),
				Budget:    plan.Budget,
				Notes:     plan.Notes,
			}, nil
		},
	)
}

// Tools returns the handler's session-independent tools in stable order.
func (h *Handler) Tools() []*ExecutableTool {
	return []*ExecutableTool{
		h.RecalculateBudget(),
		h.LookupDestinationFacts(),
		h.LocalTips(),
	}
}
