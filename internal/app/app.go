// Package app wires the application together: configuration, database,
// AI provider, knowledge store, session manager, planner, chat agent and
// HTTP server.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planit-dev/planit/internal/api"
	"github.com/planit-dev/planit/internal/chat"
	"github.com/planit-dev/planit/internal/config"
	"github.com/planit-dev/planit/internal/genai"
	"github.com/planit-dev/planit/internal/knowledge"
	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/planner"
	"github.com/planit-dev/planit/internal/session"
)

// App is the application container. Setup builds it, Close releases its
// resources in reverse order.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	DBPool    *pgxpool.Pool // nil for the memory backend
	Knowledge knowledge.Store
	Sessions  *session.Manager
	GenClient *genai.Client
	Planner   *planner.Planner
	Chat      *chat.Agent
	Server    *api.Server
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	var firstErr error
	if a.Sessions != nil {
		if err := a.Sessions.Close(); err != nil {
			a.Logger.Warn("closing session manager", "error", err)
			firstErr = err
		}
	}
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database pool closed")
	}
	return firstErr
}
