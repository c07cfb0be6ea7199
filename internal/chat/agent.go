// Package chat implements the conversational travel agent: a bounded
// observe-reason-act loop where the model may call registered tools
// before producing its final answer.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planit-dev/planit/internal/genai"
	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/session"
	"github.com/planit-dev/planit/internal/tools"
	"github.com/planit-dev/planit/internal/trip"
)

const systemPromptFormat = `You are an intelligent travel planning assistant for PlanIT. You can use tools to help users plan their trips.

## Available Tools
%s
## How to Use Tools
When you need information, respond with a tool call in this EXACT format:
TOOL: tool_name
ARGS: {"param1": "value1", "param2": "value2"}

## Rules
1. THINK first about what information you need
2. Call ONE tool at a time
3. Wait for the result before calling another tool
4. Once you have enough information, provide your final answer directly
5. Be specific and helpful in your responses`

// fallbackAnswer is returned when the loop exhausts its cycles without a
// usable final answer.
const fallbackAnswer = "I gathered some information but could not finish reasoning about your request. Could you rephrase or narrow it down?"

// historyLimit bounds how many prior messages are replayed into the
// prompt.
const historyLimit = 10

// Agent drives one conversational turn at a time. Safe for concurrent
// use; all per-turn state lives on the stack.
type Agent struct {
	gen       genai.Generator
	handler   *tools.Handler
	maxCycles int
	logger    log.Logger
}

// New creates a chat agent. maxCycles bounds the tool loop per turn.
func New(gen genai.Generator, handler *tools.Handler, maxCycles int, logger log.Logger) *Agent {
	if logger == nil {
		logger = log.NewNop()
	}
	if maxCycles < 1 {
		maxCycles = 4
	}
	return &Agent{
		gen:       gen,
		handler:   handler,
		maxCycles: maxCycles,
		logger:    logger.With("component", "chat"),
	}
}

// Respond runs the tool loop for one user message against the session's
// state and returns the assistant reply, tool invocations included.
//
// The session itself is not mutated; the caller appends the user message
// and the returned reply under the session lock. Tool failures become
// observations the model can react to. A generation failure aborts the
// turn with an error, so a canceled or failed turn appends nothing.
func (a *Agent) Respond(ctx context.Context, sess *session.Session, userMessage string) (session.Message, error) {
	registry := a.registryFor(sess)
	system := fmt.Sprintf(systemPromptFormat, registry.Prompt())

	var (
		invocations []session.ToolInvocation
		contextBuf  strings.Builder
	)
	writeHistory(&contextBuf, sess)
	fmt.Fprintf(&contextBuf, "User request: %s\n\n", userMessage)

	for cycle := 1; cycle <= a.maxCycles; cycle++ {
		prompt := contextBuf.String()
		if len(invocations) > 0 {
			prompt += "Based on the information gathered, continue helping the user.\n" +
				"If you have enough information, provide your final answer.\n" +
				"If you need more information, call another tool.\n"
		}

		response, err := a.gen.Generate(ctx, genai.Request{System: system, Prompt: prompt})
		if err != nil {
			return session.Message{}, fmt.Errorf("chat generation: %w", err)
		}

		call, ok := parseToolCall(response)
		if !ok {
			return assistantMessage(cleanResponse(response), invocations), nil
		}

		inv := a.invoke(ctx, registry, call)
		invocations = append(invocations, inv)
		writeObservation(&contextBuf, inv)
	}

	// Cycle budget exhausted: ask once for a final answer with no
	// further tool use.
	a.logger.Warn("tool loop exhausted", "session_id", sess.ID, "cycles", a.maxCycles)
	response, err := a.gen.Generate(ctx, genai.Request{
		System: system,
		Prompt: contextBuf.String() + "\nProvide your final answer now. Do not call any more tools.\n",
	})
	if err != nil || strings.TrimSpace(cleanResponse(response)) == "" {
		return assistantMessage(fallbackAnswer, invocations), nil
	}
	return assistantMessage(cleanResponse(response), invocations), nil
}

// registryFor assembles the tool registry for one turn, binding the
// session's plan into the plan inspection tool.
func (a *Agent) registryFor(sess *session.Session) *tools.Registry {
	plan := sess.Plan
	all := append(a.handler.Tools(), tools.CurrentPlan(
		func(context.Context) (*trip.PlanResult, error) { return plan, nil },
	))
	return tools.NewRegistry(all...)
}

// invoke executes one tool call, converting any failure into an
// observation the model sees on the next cycle.
func (a *Agent) invoke(ctx context.Context, registry *tools.Registry, call toolCall) session.ToolInvocation {
	inv := session.ToolInvocation{Tool: call.Name, Args: call.Args}

	tool, ok := registry.Lookup(call.Name)
	if !ok {
		inv.Error = fmt.Sprintf("unknown tool %q; available tools: %s", call.Name, strings.Join(registry.Names(), ", "))
		return inv
	}

	a.logger.Debug("tool call", "tool", call.Name)
	out, err := tool.Execute(ctx, call.Args)
	if err != nil {
		inv.Error = err.Error()
		return inv
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		inv.Error = fmt.Sprintf("encoding %s result: %v", call.Name, err)
		return inv
	}
	inv.Result = encoded
	return inv
}

// writeHistory replays the tail of the conversation into the prompt.
func writeHistory(b *strings.Builder, sess *session.Session) {
	msgs := sess.Messages
	if len(msgs) == 0 {
		return
	}
	if len(msgs) > historyLimit {
		msgs = msgs[len(msgs)-historyLimit:]
	}
	b.WriteString("CONVERSATION SO FAR:\n")
	for _, m := range msgs {
		fmt.Fprintf(b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("\n")
}

// writeObservation appends a tool result block to the accumulated
// context.
func writeObservation(b *strings.Builder, inv session.ToolInvocation) {
	b.WriteString("\n--- Tool Call ---\n")
	fmt.Fprintf(b, "Tool: %s\n", inv.Tool)
	if len(inv.Args) > 0 {
		fmt.Fprintf(b, "Arguments: %s\n", inv.Args)
	}
	if inv.Error != "" {
		fmt.Fprintf(b, "Error: %s\n", inv.Error)
	} else {
		fmt.Fprintf(b, "Result: %s\n", inv.Result)
	}
	b.WriteString("--- End Tool Call ---\n\n")
}

func assistantMessage(content string, invocations []session.ToolInvocation) session.Message {
	return session.Message{
		Role:        session.RoleAssistant,
		Content:     content,
		Invocations: invocations,
	}
}
