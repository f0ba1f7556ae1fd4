package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_Classify(t *testing.T) {
	t.Parallel()

	var received classifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"positive": true}`))
	}))
	defer srv.Close()

	c := NewHTTP(HTTPConfig{Endpoint: srv.URL})
	ok, err := c.IsTextPositive(context.Background(), "what a wonderful day")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "what a wonderful day", received.Input)
}

func TestHTTP_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"Server Error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"Missing Verdict", http.StatusOK, `{}`},
		{"Garbage", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			ok, err := NewHTTP(HTTPConfig{Endpoint: srv.URL}).IsImagePositive(context.Background(), "https://x/a.png")
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}

	_, err := NewHTTP(HTTPConfig{}).IsTextPositive(context.Background(), "hi")
	assert.Error(t, err, "no endpoint")
}

func TestStatic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	open := NewStatic()
	ok, err := open.IsTextPositive(ctx, "anything")
	require.NoError(t, err)
	assert.True(t, ok)

	strict := NewStatic("https://cdn.example.com/good.png", "nice caption")
	ok, _ = strict.IsImagePositive(ctx, "https://cdn.example.com/good.png")
	assert.True(t, ok)
	ok, _ = strict.IsImagePositive(ctx, "https://cdn.example.com/bad.png")
	assert.False(t, ok)
	ok, _ = strict.IsTextPositive(ctx, "nice caption")
	assert.True(t, ok)
}

type stubClassifier struct {
	isImagePositive func(ctx context.Context, imageURL string) (bool, error)
	isTextPositive  func(ctx context.Context, text string) (bool, error)
}

func (s *stubClassifier) IsImagePositive(ctx context.Context, imageURL string) (bool, error) {
	return s.isImagePositive(ctx, imageURL)
}

func (s *stubClassifier) IsTextPositive(ctx context.Context, text string) (bool, error) {
	return s.isTextPositive(ctx, text)
}

func TestFailClosed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(ctx context.Context, s string) (bool, error)
		want  bool
	}{
		{"Positive", func(context.Context, string) (bool, error) { return true, nil }, true},
		{"Negative", func(context.Context, string) (bool, error) { return false, nil }, false},
		{"Error", func(context.Context, string) (bool, error) { return true, errors.New("down") }, false},
		{"Panic", func(context.Context, string) (bool, error) { panic("bad model") }, false},
		{"Timeout", func(ctx context.Context, _ string) (bool, error) {
			<-ctx.Done()
			return true, ctx.Err()
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubClassifier{isImagePositive: tt.check, isTextPositive: tt.check}
			fc := NewFailClosed(stub, stub, 20*time.Millisecond)

			ok, err := fc.IsImagePositive(ctx, "https://x/a.png")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			ok, err = fc.IsTextPositive(ctx, "hello")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	ok, err := NewFailClosed(nil, nil, 0).IsTextPositive(ctx, "hi")
	require.NoError(t, err)
	assert.False(t, ok, "missing classifier rejects")
}
