package calculator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reckon/tool/calculator"
)

func TestSpec(t *testing.T) {
	spec := calculator.New().Spec()
	gt.Equal(t, spec.Name, "Calculator")
	gt.S(t, spec.Description).Contains("math-related questions")
	gt.NoError(t, spec.Validate())
}

func TestRun(t *testing.T) {
	testCases := map[string]struct {
		input string
		want  string
	}{
		"grouped":          {input: "2 * (25 + 5)", want: "60"},
		"division":         {input: "5 / 2", want: "2.5"},
		"unicode ops":      {input: "6 × 7 ÷ 2", want: "21"},
		"caret power":      {input: "2^10", want: "1024"},
		"trailing equals":  {input: "12 + 30 =", want: "42"},
		"surrounding ws":   {input: "  \n 1 + 1 \t", want: "2"},
		"constants":        {input: "round(pi * 100) / 100", want: "3.14"},
		"functions":        {input: "sqrt(16) + abs(-3) + pow(2, 3)", want: "15"},
		"min max":          {input: "max(1, 7, 3) - min(4, 2)", want: "5"},
		"natural log":      {input: "ln(e)", want: "1"},
		"unicode minus":    {input: "10 − 4", want: "6"},
		"negative decimal": {input: "-0.5 * 3", want: "-1.5"},
	}

	tool := calculator.New()
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := tool.Run(context.Background(), tc.input)
			gt.NoError(t, err)
			gt.Equal(t, got, tc.want)
		})
	}
}

func TestRunRejectsProse(t *testing.T) {
	tool := calculator.New()

	for _, input := range []string{
		"Calculate 2 times 25",
		"what is the square root of 16",
		"",
		"1 < 2",
		`"hello"`,
		"os.Exit(1)",
		"len([1,2,3])",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := tool.Run(context.Background(), input)
			gt.Error(t, err)
			gt.True(t, errors.Is(err, calculator.ErrNotExpression))
		})
	}
}

func TestRunNonFinite(t *testing.T) {
	_, err := calculator.New().Run(context.Background(), "1 / 0")
	gt.Error(t, err)
}

func TestRunInputLength(t *testing.T) {
	long := strings.Repeat("1+", 300) + "1"

	_, err := calculator.New().Run(context.Background(), long)
	gt.True(t, errors.Is(err, calculator.ErrNotExpression))

	got, err := calculator.New(calculator.WithMaxInputLength(1000)).Run(context.Background(), long)
	gt.NoError(t, err)
	gt.Equal(t, got, "301")
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := calculator.New().Run(ctx, "1 + 1")
	gt.True(t, errors.Is(err, context.Canceled))
}
