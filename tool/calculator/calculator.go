// Package calculator provides a reckon.Tool that evaluates pure arithmetic expressions.
package calculator

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
)

const (
	ToolName        = "Calculator"
	ToolDescription = "A useful tool for answering math-related questions. This tool can handle complex mathematical expressions. Use this for any math calculations."

	DefaultMaxInputLength = 512

	maxNodes = 1000
)

// ErrNotExpression is returned for inputs that are not a pure mathematical expression.
var ErrNotExpression = goerr.New("input must be a pure mathematical expression, for example: 2 * (25 + 5)")

type Tool struct {
	maxInputLength int
}

var _ reckon.Tool = (*Tool)(nil)

type Option func(*Tool)

// WithMaxInputLength caps the expression length in characters.
func WithMaxInputLength(n int) Option {
	return func(t *Tool) {
		t.maxInputLength = n
	}
}

// New creates the Calculator tool.
func New(options ...Option) *Tool {
	t := &Tool{maxInputLength: DefaultMaxInputLength}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *Tool) Spec() reckon.ToolSpec {
	return reckon.ToolSpec{
		Name:        ToolName,
		Description: ToolDescription,
	}
}

// Run evaluates the expression and returns the result as decimal text, e.g. "60" or "2.5".
func (t *Tool) Run(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", goerr.Wrap(err, "calculation canceled")
	}

	expression := normalize(input)
	if expression == "" {
		return "", goerr.Wrap(ErrNotExpression, "empty input")
	}
	if t.maxInputLength > 0 && len([]rune(expression)) > t.maxInputLength {
		return "", goerr.Wrap(ErrNotExpression, "input is too long",
			goerr.V("length", len([]rune(expression))),
			goerr.V("max", t.maxInputLength),
		)
	}

	value, err := Evaluate(expression)
	if err != nil {
		return "", err
	}

	return strconv.FormatFloat(value, 'f', -1, 64), nil
}

// Evaluate compiles and runs an expression against the closed math environment.
func Evaluate(expression string) (float64, error) {
	options := append([]expr.Option{
		expr.Env(env),
		expr.DisableAllBuiltins(),
		expr.AsFloat64(),
		expr.MaxNodes(maxNodes),
	}, functions...)

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return 0, goerr.Wrap(ErrNotExpression, "failed to compile expression",
			goerr.V("expression", expression),
			goerr.V("cause", err.Error()),
		)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to evaluate expression", goerr.V("expression", expression))
	}

	value, ok := out.(float64)
	if !ok {
		return 0, goerr.Wrap(ErrNotExpression, "result is not a number",
			goerr.V("expression", expression),
			goerr.V("result", out),
		)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, goerr.New("result is not a finite number",
			goerr.V("expression", expression),
			goerr.V("result", value),
		)
	}

	return value, nil
}

var replacer = strings.NewReplacer(
	"×", "*",
	"÷", "/",
	"−", "-",
	"^", "**",
)

func normalize(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimSuffix(s, "=")
	return strings.TrimSpace(replacer.Replace(s))
}
