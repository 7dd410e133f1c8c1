package reckon

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrConfigMissing is returned before any loop iteration when a required collaborator or credential is not configured.
	ErrConfigMissing = errors.New("configuration missing")

	// ErrInvalidTool is returned when a tool specification is not acceptable for the fixed tool set.
	ErrInvalidTool = errors.New("invalid tool specification")

	// ErrToolNameConflict is returned when two tools share the same name.
	ErrToolNameConflict = errors.New("tool name conflict")

	// ErrUnknownTool is the reason recorded when the model names a tool outside the registered set.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrEngineFailure wraps errors returned by the reasoning engine.
	ErrEngineFailure = errors.New("reasoning engine failure")

	// ErrEmptyQuestion is returned by Run when the question is blank.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrInvalidRole is returned when a transcript turn has a role other than user or assistant.
	ErrInvalidRole = errors.New("invalid turn role")
)

// Reasons for InvalidDecision. They are not fatal; the loop feeds them back to the model.
var (
	ErrEmptyOutput        = errors.New("empty output")
	ErrMissingAction      = errors.New("missing 'Action:' after 'Thought:'")
	ErrMissingActionInput = errors.New("missing 'Action Input:' after 'Action:'")
	ErrEmptyActionInput   = errors.New("empty 'Action Input:'")
	ErrEmptyFinalAnswer   = errors.New("empty 'Final Answer:'")
)

// ErrTagContextLength tags engine errors caused by a prompt longer than the model accepts.
var ErrTagContextLength = goerr.NewTag("context_length_exceeded")
