package discovery

import (
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "unauthorized",
			err:  &openai.APIError{HTTPStatusCode: 401},
			want: KindAuth,
		},
		{
			name: "forbidden",
			err:  &openai.APIError{HTTPStatusCode: 403},
			want: KindAuth,
		},
		{
			name: "rate limited",
			err:  &openai.APIError{HTTPStatusCode: 429},
			want: KindRateLimit,
		},
		{
			name: "server error",
			err:  &openai.APIError{HTTPStatusCode: 500},
			want: KindNetwork,
		},
		{
			name: "plain transport error",
			err:  errors.New("connection refused"),
			want: KindNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derr := classify("city_search", tt.err)
			if derr.Kind != tt.want {
				t.Errorf("got kind %q, want %q", derr.Kind, tt.want)
			}
			if !errors.Is(derr, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	derr := parseError("city_search", errors.New("bad json"))
	wrapped := fmt.Errorf("run failed: %w", derr)

	if got := KindOf(wrapped); got != KindParse {
		t.Errorf("got kind %q, want %q", got, KindParse)
	}
	if got := KindOf(errors.New("something else")); got != "" {
		t.Errorf("expected empty kind for foreign error, got %q", got)
	}
}
