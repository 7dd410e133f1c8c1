package main

import (
	"context"
	"net/http"

	"github.com/m-mizutani/reckon"
)

type (
	ListTracesResponse    = listTracesResponse
	CreateSessionResponse = createSessionResponse
	AskResponse           = askResponse
	TranscriptResponse    = transcriptResponse
	Config                = config
	AgentFactory          = agentFactory
)

const Greeting = greeting

var (
	NewServer        = newServer
	WithAgentFactory = withAgentFactory
	WithTraceDir     = withTraceDir
	WithMaxSessions  = withMaxSessions
	WithSessionTTL   = withSessionTTL
	WithClock        = withClock
	LoadConfig       = loadConfig
	RunChat          = runChat
	RunAsk           = runAsk
	NewApp           = newApp
)

// Handler returns the server's HTTP handler for testing.
func (s *server) Handler() http.Handler {
	return s.handler()
}

// SessionCount returns the number of live sessions held by the server.
func (s *server) SessionCount() int {
	return s.sessions.count()
}

// NewLLMClient exposes engine construction for testing.
func (c *config) NewLLMClient(ctx context.Context) (reckon.LLMClient, error) {
	return c.newLLMClient(ctx)
}
