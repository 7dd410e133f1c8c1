package reckon

var (
	CtxWithLogger    = ctxWithLogger
	SynthesizeAnswer = synthesizeAnswer
	GeneratedAnswer  = generatedAnswer
)

// LastTurns returns up to n most recent turns for testing.
func (x *Transcript) LastTurns(n int) []Turn {
	return x.last(n)
}
