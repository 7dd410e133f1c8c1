package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reckon"
	"github.com/m-mizutani/reckon/llm/ollama"
	"github.com/ollama/ollama/api"
)

type fakeAPIClient struct {
	requests  []*api.GenerateRequest
	responses []api.GenerateResponse
	err       error
}

func (f *fakeAPIClient) Generate(ctx context.Context, req *api.GenerateRequest, fn api.GenerateResponseFunc) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	for _, resp := range f.responses {
		if err := fn(resp); err != nil {
			return err
		}
	}
	return nil
}

var _ ollama.APIClient = &fakeAPIClient{}

func TestComplete(t *testing.T) {
	done := api.GenerateResponse{Model: "llama3.1:8b", Response: "Final Answer: 60", Done: true}
	done.PromptEvalCount = 120
	done.EvalCount = 9

	fake := &fakeAPIClient{
		responses: []api.GenerateResponse{
			{Response: " I can compute this.\n"},
			done,
		},
	}
	client := ollama.NewWithAPIClient(fake,
		ollama.WithSystemPrompt("Follow the format."),
		ollama.WithMaxTokens(256),
	)

	completion, err := client.Complete(context.Background(), &reckon.CompletionRequest{
		Prompt: "Question: 2 * (25 + 5)?\nThought:",
		Stop:   []string{"\nObservation:"},
	})
	gt.NoError(t, err)
	gt.Equal(t, completion.Text, " I can compute this.\nFinal Answer: 60")
	gt.Equal(t, completion.Model, "llama3.1:8b")
	gt.Equal(t, completion.InputToken, 120)
	gt.Equal(t, completion.OutputToken, 9)

	gt.A(t, fake.requests).Length(1)
	req := fake.requests[0]
	gt.Equal(t, req.Model, ollama.DefaultModel)
	gt.Equal(t, req.System, "Follow the format.")
	gt.False(t, *req.Stream)
	gt.Equal(t, req.Options["temperature"], any(float64(0)))
	gt.Equal(t, req.Options["stop"], any([]string{"\nObservation:"}))
	gt.Equal(t, req.Options["num_predict"], any(256))
}

func TestCompleteError(t *testing.T) {
	apiErr := errors.New("connection refused")
	client := ollama.NewWithAPIClient(&fakeAPIClient{err: apiErr})

	_, err := client.Complete(context.Background(), &reckon.CompletionRequest{Prompt: "p"})
	gt.True(t, errors.Is(err, apiErr))
}

func TestNewInvalidBaseURL(t *testing.T) {
	_, err := ollama.New(context.Background(), ollama.WithBaseURL("not a url"))
	gt.True(t, errors.Is(err, reckon.ErrConfigMissing))
}

func TestCompleteOverHTTP(t *testing.T) {
	var got api.GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/api/generate")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		gt.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.1:latest",
			"response":          "Final Answer: ok",
			"done":              true,
			"prompt_eval_count": 10,
			"eval_count":        3,
		}))
	}))
	defer srv.Close()

	client, err := ollama.New(context.Background(),
		ollama.WithBaseURL(srv.URL),
		ollama.WithHTTPClient(srv.Client()),
	)
	gt.NoError(t, err)

	completion, err := client.Complete(context.Background(), &reckon.CompletionRequest{Prompt: "hello"})
	gt.NoError(t, err)
	gt.Equal(t, completion.Text, "Final Answer: ok")
	gt.Equal(t, completion.OutputToken, 3)
	gt.Equal(t, got.Prompt, "hello")
}

func TestOllamaComplete(t *testing.T) {
	baseURL, ok := os.LookupEnv("TEST_OLLAMA_URL")
	if !ok {
		t.Skip("TEST_OLLAMA_URL is not set")
	}

	client, err := ollama.New(context.Background(), ollama.WithBaseURL(baseURL))
	gt.NoError(t, err)

	completion, err := client.Complete(context.Background(), &reckon.CompletionRequest{
		Prompt: "Reply with exactly: Final Answer: hello",
	})
	gt.NoError(t, err)
	gt.S(t, completion.Text).Contains("hello")
}
