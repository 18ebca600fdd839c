// Package ingestapi exposes the HTTP ingestion surface: the SIEM webhook,
// the chat event entry point, and the card action endpoint. Each adapter's
// only contract with the core is: derive a block of raw text, run the
// pipeline, post the resulting card.
package ingestapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/triago/internal/actions"
	"github.com/linnemanlabs/triago/internal/authmw"
	"github.com/linnemanlabs/triago/internal/triage"
)

// secretHeader carries the optional shared ingest secret.
const secretHeader = "X-Triago-Secret"

// fallbackText is the plain-text stand-in when blocks cannot be posted.
const fallbackText = "\U0001f514 Triago alert"

// Pipeline runs the triage chain over raw text. Never fails.
type Pipeline interface {
	Run(ctx context.Context, raw string) *triage.Verdict
}

// Poster is the outbound message transport.
type Poster interface {
	PostCard(ctx context.Context, channel, fallbackText string, blocks []map[string]any) error
	PostText(ctx context.Context, channel, text string) error
}

// ActionHandler processes card action invocations.
type ActionHandler interface {
	Handle(ctx context.Context, action, cardID, channel string) error
}

// API holds dependencies for the HTTP handlers.
type API struct {
	logger         log.Logger
	pipeline       Pipeline
	poster         Poster
	actions        ActionHandler
	store          *actions.Store
	secret         string
	botToken       string
	defaultChannel string
	fetchClient    *http.Client
}

// New creates the ingest API. Pipeline and poster are required.
func New(logger log.Logger, pipeline Pipeline, poster Poster, handler ActionHandler, store *actions.Store, secret, botToken, defaultChannel string) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if pipeline == nil {
		panic(xerrors.New("pipeline is required"))
	}
	if poster == nil {
		panic(xerrors.New("poster is required"))
	}
	return &API{
		logger:         logger,
		pipeline:       pipeline,
		poster:         poster,
		actions:        handler,
		store:          store,
		secret:         secret,
		botToken:       botToken,
		defaultChannel: defaultChannel,
		fetchClient:    &http.Client{Timeout: 20 * time.Second},
	}
}

// RegisterRoutes attaches the ingest endpoints to the router. The SIEM
// webhook sits behind the shared-secret check; mismatches are rejected
// before any body processing.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/ingest", func(r chi.Router) {
		r.With(authmw.SharedSecret(secretHeader, a.secret)).Post("/siem", a.handleSIEM)
		r.Post("/event", a.handleEvent)
		r.Post("/action", a.handleAction)
	})
}

// channelOr returns ch or the configured default channel.
func (a *API) channelOr(ch string) string {
	if ch != "" {
		return ch
	}
	return a.defaultChannel
}
