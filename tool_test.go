package reckon_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reckon"
	"github.com/m-mizutani/reckon/mock"
)

func TestToolSpecValidate(t *testing.T) {
	testCases := map[string]struct {
		spec  reckon.ToolSpec
		valid bool
	}{
		"valid":               {spec: reckon.ToolSpec{Name: "Calculator", Description: "math"}, valid: true},
		"empty name":          {spec: reckon.ToolSpec{Name: "", Description: "math"}},
		"name with space":     {spec: reckon.ToolSpec{Name: "My Tool", Description: "x"}},
		"name with colon":     {spec: reckon.ToolSpec{Name: "a:b", Description: "x"}},
		"name with comma":     {spec: reckon.ToolSpec{Name: "a,b", Description: "x"}},
		"name with bracket":   {spec: reckon.ToolSpec{Name: "[a]", Description: "x"}},
		"empty description":   {spec: reckon.ToolSpec{Name: "a", Description: ""}},
		"blank description":   {spec: reckon.ToolSpec{Name: "a", Description: "  \n"}},
		"hyphen is permitted": {spec: reckon.ToolSpec{Name: "web-search", Description: "x"}, valid: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.valid {
				gt.NoError(t, err)
			} else {
				gt.True(t, errors.Is(err, reckon.ErrInvalidTool))
			}
		})
	}
}

func newTestTool(name string, run func(ctx context.Context, input string) (string, error)) *mock.ToolMock {
	return &mock.ToolMock{
		SpecFunc: func() reckon.ToolSpec {
			return reckon.ToolSpec{Name: name, Description: name + " tool"}
		},
		RunFunc: run,
	}
}

func TestNewRejectsInvalidToolSet(t *testing.T) {
	client := &mock.LLMClientMock{}
	noop := func(ctx context.Context, input string) (string, error) { return "", nil }

	t.Run("conflict", func(t *testing.T) {
		_, err := reckon.New(client, reckon.WithTools(newTestTool("Calculator", noop), newTestTool("Calculator", noop)))
		gt.True(t, errors.Is(err, reckon.ErrToolNameConflict))
	})

	t.Run("invalid spec", func(t *testing.T) {
		_, err := reckon.New(client, reckon.WithTools(newTestTool("bad name", noop)))
		gt.True(t, errors.Is(err, reckon.ErrInvalidTool))
	})

	t.Run("nil tool", func(t *testing.T) {
		_, err := reckon.New(client, reckon.WithTools(nil))
		gt.True(t, errors.Is(err, reckon.ErrInvalidTool))
	})

	gt.A(t, client.CompleteCalls()).Length(0)
}

func TestToolFunc(t *testing.T) {
	tool := &reckon.ToolFunc{
		Name:        "Echo",
		Description: "Echoes input",
		Func: func(ctx context.Context, input string) (string, error) {
			return input, nil
		},
	}

	gt.Equal(t, tool.Spec(), reckon.ToolSpec{Name: "Echo", Description: "Echoes input"})
	out, err := tool.Run(context.Background(), "hi")
	gt.NoError(t, err)
	gt.Equal(t, out, "hi")
}
