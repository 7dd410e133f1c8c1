package reckon

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ToolSpec is the specification of a tool.
type ToolSpec struct {
	// Name is the identifier the model writes after "Action:". It is matched exactly and case-sensitively.
	Name string

	// Description is shown to the model next to the name in the prompt.
	Description string
}

// Validate validates the tool specification.
func (s *ToolSpec) Validate() error {
	eb := goerr.NewBuilder(goerr.V("tool", s.Name))
	if s.Name == "" {
		return eb.Wrap(ErrInvalidTool, "name is required")
	}
	if strings.ContainsAny(s.Name, " \t\r\n:,[]") {
		return eb.Wrap(ErrInvalidTool, "name must not contain whitespace, colon, comma or brackets")
	}
	if strings.TrimSpace(s.Description) == "" {
		return eb.Wrap(ErrInvalidTool, "description is required")
	}
	return nil
}

// Tool is a named external capability with a single string-in/string-out contract.
type Tool interface {
	// Spec returns the specification of the tool. It is read once when the agent is created.
	Spec() ToolSpec

	// Run executes the tool with the Action Input written by the model, verbatim except for trimming.
	// A returned error does not abort the loop; it is turned into an Observation for the model.
	Run(ctx context.Context, input string) (string, error)
}

// ToolFunc adapts a plain function into a Tool.
type ToolFunc struct {
	Name        string
	Description string
	Func        func(ctx context.Context, input string) (string, error)
}

func (x *ToolFunc) Spec() ToolSpec {
	return ToolSpec{Name: x.Name, Description: x.Description}
}

func (x *ToolFunc) Run(ctx context.Context, input string) (string, error) {
	return x.Func(ctx, input)
}

// toolRegistry is the closed set of tools, validated once and looked up by exact name.
type toolRegistry struct {
	specs []ToolSpec
	tools map[string]Tool
}

func buildToolRegistry(tools []Tool) (*toolRegistry, error) {
	reg := &toolRegistry{
		tools: make(map[string]Tool, len(tools)),
	}

	for _, tool := range tools {
		if tool == nil {
			return nil, goerr.Wrap(ErrInvalidTool, "tool is nil")
		}

		spec := tool.Spec()
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, ok := reg.tools[spec.Name]; ok {
			return nil, goerr.Wrap(ErrToolNameConflict, "tool name conflict", goerr.V("tool_name", spec.Name))
		}

		reg.tools[spec.Name] = tool
		reg.specs = append(reg.specs, spec)
	}

	return reg, nil
}

func (x *toolRegistry) lookup(name string) (Tool, bool) {
	tool, ok := x.tools[name]
	return tool, ok
}

func (x *toolRegistry) names() []string {
	names := make([]string, len(x.specs))
	for i, spec := range x.specs {
		names[i] = spec.Name
	}
	return names
}
