package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"cold-message/internal/domain"
)

type fakeGetter struct {
	val   string
	err   error
	name  string
	calls int
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.calls++
	f.name = name
	return f.val, f.err
}

func TestNewLoader_Validation(t *testing.T) {
	_, err := NewLoader("gemini-2.0-flash")
	require.Error(t, err)

	_, err = NewLoader("gemini-2.0-flash", WithParamStore(&fakeGetter{}, "  "))
	require.ErrorContains(t, err, "prefix")

	l, err := NewLoader("", WithAPIKey("k"))
	require.NoError(t, err)
	require.Equal(t, DefaultModel, l.ModelID())
}

func TestResolveAPIKey_ParamStoreOnce(t *testing.T) {
	g := &fakeGetter{val: `{"token":"g-key"}`}
	l, err := NewLoader("m", WithParamStore(g, "/cold-message/"))
	require.NoError(t, err)

	key, err := l.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "g-key", key)
	require.Equal(t, "/cold-message/gemini-token", g.name)

	_, _ = l.resolveAPIKey(context.Background())
	require.Equal(t, 1, g.calls)
}

func TestLoad_CredentialErrorIsReturned(t *testing.T) {
	l, err := NewLoader("m", WithParamStore(&fakeGetter{err: errors.New("ssm unavailable")}, "/cold-message"))
	require.NoError(t, err)
	_, err = l.Load(context.Background())
	require.ErrorContains(t, err, "ssm unavailable")
}

func TestClientConfig(t *testing.T) {
	l, err := NewLoader("m", WithAPIKey("k"), WithBaseURL("http://127.0.0.1:9999/"))
	require.NoError(t, err)
	cfg := l.clientConfig("k")
	require.Equal(t, "k", cfg.APIKey)
	require.Equal(t, genai.BackendGeminiAPI, cfg.Backend)
	require.Equal(t, "http://127.0.0.1:9999/", cfg.HTTPOptions.BaseURL)
}

func TestGenerateConfig(t *testing.T) {
	cfg := generateConfig(domain.DefaultGenerationOptions())
	require.NotNil(t, cfg.Temperature)
	require.InDelta(t, 0.7, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.TopP)
	require.InDelta(t, 0.95, *cfg.TopP, 1e-6)
	require.Equal(t, int32(200), cfg.MaxOutputTokens)

	empty := generateConfig(domain.GenerationOptions{})
	require.Nil(t, empty.Temperature)
	require.Nil(t, empty.TopP)
	require.Zero(t, empty.MaxOutputTokens)
}
