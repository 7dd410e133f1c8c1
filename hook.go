package reckon

import (
	"context"
	"fmt"
)

// StepHook is called after every step of Run, for progressive display. It cannot influence the loop.
type StepHook func(ctx context.Context, step Step)

func defaultStepHook(ctx context.Context, step Step) {}

// notifyStep calls the hook and swallows any panic so that a failing observer never changes the outcome of Run.
func notifyStep(ctx context.Context, hook StepHook, step Step) {
	defer func() {
		if r := recover(); r != nil {
			LoggerFromContext(ctx).Warn("step hook panicked",
				"step", step,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	hook(ctx, step)
}
