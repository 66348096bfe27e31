package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/prospector/internal/leads"
)

func sampleRecord() leads.AnnotatedRecord {
	return leads.NewEngine(leads.DefaultTargets()).AnnotateRecord(leads.CompanyRecord{
		Row:          6,
		LegalName:    "Lacteos del Valle SAS",
		IndustryCode: "C1051",
		Macrosector:  "MANUFACTURA",
		City:         "CALI",
		Department:   "VALLE",
		Y2023:        leads.Financials{Revenue: leads.Float(1000000)},
		Y2024:        leads.Financials{Revenue: leads.Float(1234567), Profit: leads.Float(123456.7), Assets: leads.Float(2000000)},
	})
}

func TestClientComplete(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Buen cliente.  "}}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	text, err := client.Complete(context.Background(), SystemPrompt, "hola")
	require.NoError(t, err)
	assert.Equal(t, "Buen cliente.", text)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, DefaultTemperature, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "hola", got.Messages[1].Content)
}

func TestClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), SystemPrompt, "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rate limit reached")
	assert.Equal(t, 1, calls)

	_, err = NewClient(Config{}).Complete(context.Background(), SystemPrompt, "hola")
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

type stubCompleter struct {
	text   string
	err    error
	prompt string
}

func (s *stubCompleter) Complete(_ context.Context, _, user string) (string, error) {
	s.prompt = user
	return s.text, s.err
}

type countingOutcome struct{ ok, failed int }

func (c *countingOutcome) ObserveNarrative(ok bool) {
	if ok {
		c.ok++
		return
	}
	c.failed++
}

func TestNarratorSuccess(t *testing.T) {
	stub := &stubCompleter{text: "Empresa sólida."}
	outcome := &countingOutcome{}
	n := NewNarrator(stub, nil, outcome)

	assert.Equal(t, "Empresa sólida.", n.Narrate(context.Background(), sampleRecord()))
	assert.Equal(t, 1, outcome.ok)
	assert.Contains(t, stub.prompt, "Empresa: Lacteos del Valle SAS")
	assert.Contains(t, stub.prompt, "Ingresos 2024: $1,234,567 (miles de pesos)")
	assert.Contains(t, stub.prompt, "Crecimiento de ingresos: 23.5%")
	assert.Contains(t, stub.prompt, "Ubicación: CALI, VALLE")
}

func TestNarratorFallback(t *testing.T) {
	outcome := &countingOutcome{}
	n := NewNarrator(&stubCompleter{err: errors.New("timeout")}, nil, outcome)
	assert.Equal(t, "Análisis no disponible: timeout", n.Narrate(context.Background(), sampleRecord()))
	assert.Equal(t, 1, outcome.failed)

	empty := NewNarrator(&stubCompleter{text: "   "}, nil, nil)
	assert.True(t, strings.HasPrefix(empty.Narrate(context.Background(), sampleRecord()), FallbackPrefix))

	unset := NewNarrator(nil, nil, nil)
	assert.Equal(t, Fallback(ErrMissingAPIKey), unset.Narrate(context.Background(), sampleRecord()))
}

type panicCompleter struct{}

func (panicCompleter) Complete(context.Context, string, string) (string, error) {
	panic("boom")
}

func TestNarratorRecoversPanics(t *testing.T) {
	n := NewNarrator(panicCompleter{}, nil, nil)
	assert.Equal(t, "Análisis no disponible: narrative: panic: boom", n.Narrate(context.Background(), sampleRecord()))
}

func TestPromptPlaceholders(t *testing.T) {
	prompt := Prompt(leads.AnnotatedRecord{CompanyRecord: leads.CompanyRecord{LegalName: "X"}})
	assert.Contains(t, prompt, "Actividad (CIIU): N/D")
	assert.Contains(t, prompt, "Ingresos 2024: N/D")
	assert.Contains(t, prompt, "Activos totales: N/D")
}
