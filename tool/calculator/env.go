package calculator

import (
	"math"

	"github.com/expr-lang/expr"
	"github.com/m-mizutani/goerr/v2"
)

var env = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

var functions = []expr.Option{
	unary("sqrt", math.Sqrt),
	unary("abs", math.Abs),
	unary("floor", math.Floor),
	unary("ceil", math.Ceil),
	unary("round", math.Round),
	unary("log", math.Log),
	unary("ln", math.Log),
	unary("exp", math.Exp),
	unary("sin", math.Sin),
	unary("cos", math.Cos),
	unary("tan", math.Tan),
	binary("pow", math.Pow),
	variadic("min", math.Min),
	variadic("max", math.Max),
}

func unary(name string, fn func(float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, goerr.New("wrong number of arguments", goerr.V("func", name), goerr.V("want", 1), goerr.V("got", len(params)))
		}
		x, err := toFloat(name, params[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	})
}

func binary(name string, fn func(float64, float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		if len(params) != 2 {
			return nil, goerr.New("wrong number of arguments", goerr.V("func", name), goerr.V("want", 2), goerr.V("got", len(params)))
		}
		x, err := toFloat(name, params[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat(name, params[1])
		if err != nil {
			return nil, err
		}
		return fn(x, y), nil
	})
}

// variadic folds fn over one or more arguments.
func variadic(name string, fn func(float64, float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		if len(params) == 0 {
			return nil, goerr.New("at least one argument is required", goerr.V("func", name))
		}
		acc, err := toFloat(name, params[0])
		if err != nil {
			return nil, err
		}
		for _, p := range params[1:] {
			x, err := toFloat(name, p)
			if err != nil {
				return nil, err
			}
			acc = fn(acc, x)
		}
		return acc, nil
	})
}

func toFloat(name string, v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	default:
		return 0, goerr.Wrap(ErrNotExpression, "argument is not a number", goerr.V("func", name), goerr.V("arg", v))
	}
}
