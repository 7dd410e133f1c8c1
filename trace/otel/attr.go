package otel

import "go.opentelemetry.io/otel/attribute"

func questionAttr(q string) attribute.KeyValue {
	return attribute.String("reckon.question", q)
}

func iterationsAttr(n int) attribute.KeyValue {
	return attribute.Int("reckon.iterations", n)
}

func completedAttr(v bool) attribute.KeyValue {
	return attribute.Bool("reckon.completed", v)
}

func llmModelAttr(model string) attribute.KeyValue {
	return attribute.String("llm.model", model)
}

func llmInputTokensAttr(tokens int) attribute.KeyValue {
	return attribute.Int("llm.input_tokens", tokens)
}

func llmOutputTokensAttr(tokens int) attribute.KeyValue {
	return attribute.Int("llm.output_tokens", tokens)
}

func toolNameAttr(name string) attribute.KeyValue {
	return attribute.String("tool.name", name)
}

func toolInputAttr(input string) attribute.KeyValue {
	return attribute.String("tool.input", input)
}

func toolResultLengthAttr(n int) attribute.KeyValue {
	return attribute.Int("tool.result_length", n)
}

func eventDataAttr(data string) attribute.KeyValue {
	return attribute.String("event.data", data)
}
