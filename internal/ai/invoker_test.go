package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubModel struct {
	name  string
	resp  *AIResponse
	err   error
	calls int
}

func (s *stubModel) Model() string { return s.name }

func (s *stubModel) Invoke(ctx context.Context, req Request) (*AIResponse, error) {
	s.calls++
	return s.resp, s.err
}

func TestInvokeStopsAtFirstSuccess(t *testing.T) {
	first := &stubModel{name: "m1", err: fmt.Errorf("503 service unavailable")}
	second := &stubModel{name: "m2", resp: &AIResponse{Success: true, GeneratedText: "analysis"}}
	third := &stubModel{name: "m3"}

	inv := NewInvokerWithModels(1024, 0.3, first, second, third)
	resp, err := inv.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.GeneratedText != "analysis" || resp.Model != "m2" {
		t.Fatalf("wrong winning attempt: %+v", resp)
	}
	if third.calls != 0 {
		t.Fatalf("later models must not run after a success")
	}
}

func TestInvokeAggregateFailureAfterLastModel(t *testing.T) {
	first := &stubModel{name: "m1", err: fmt.Errorf("connection reset")}
	second := &stubModel{name: "m2", err: fmt.Errorf("API key not valid")}

	inv := NewInvokerWithModels(1024, 0.3, first, second)
	resp, err := inv.Invoke(context.Background(), "prompt")

	if err == nil {
		t.Fatalf("expected aggregate error")
	}
	if !errors.Is(err, ErrAllModelsExhausted) {
		t.Fatalf("expected ErrAllModelsExhausted, got %v", err)
	}
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("last failure was an access problem, got %v", err)
	}
	if resp == nil || resp.Success {
		t.Fatalf("aggregate response should be a failure: %+v", resp)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("every model should be attempted exactly once")
	}
}

func TestClassifyProviderError(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"rpc error: code = PermissionDenied desc = permission denied", ErrAccessDenied},
		{"API key not valid. Please pass a valid API key.", ErrAccessDenied},
		{"got HTTP 403 from provider", ErrAccessDenied},
		{"invalid argument: temperature out of range", ErrValidation},
		{"request validation error", ErrValidation},
		{"dial tcp: i/o timeout", ErrTransport},
		{"internal server error", ErrTransport},
	}

	for _, tc := range cases {
		got := classifyProviderError(errors.New(tc.in))
		if !errors.Is(got, tc.want) {
			t.Errorf("classify(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDecodeLegacyBodyStructuredShape(t *testing.T) {
	body := []byte(`{"candidates":[{"content":{"parts":[{"text":"Viability: "},{"text":"high"}]}}]}`)

	text, tokens, err := decodeLegacyBody(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if text != "Viability: high" {
		t.Fatalf("got %q", text)
	}
	if tokens < 1 {
		t.Fatalf("token estimate should be positive")
	}
}

func TestDecodeLegacyBodyCompletionShape(t *testing.T) {
	body := []byte(`{"candidates":[{"output":"the case is weak"}]}`)

	text, _, err := decodeLegacyBody(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if text != "the case is weak" {
		t.Fatalf("got %q", text)
	}
}

func TestDecodeLegacyBodyRawFallback(t *testing.T) {
	body := []byte("not json at all, but a perfectly usable answer")

	text, _, err := decodeLegacyBody(body)
	if err != nil {
		t.Fatalf("a parse failure must not discard a successful call: %v", err)
	}
	if text != string(body) {
		t.Fatalf("got %q", text)
	}
}

func TestDecodeLegacyBodyAPIError(t *testing.T) {
	body := []byte(`{"error":{"code":403,"message":"caller does not have permission","status":"PERMISSION_DENIED"}}`)

	_, _, err := decodeLegacyBody(body)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}
