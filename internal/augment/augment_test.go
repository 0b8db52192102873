package augment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
)

// scriptedCompleter returns one canned response (or error) per call.
type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (c *scriptedCompleter) Complete(_ context.Context, _ string, user string, _ bool) (string, error) {
	i := c.calls
	c.calls++
	c.prompts = append(c.prompts, user)
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func boolPtr(v bool) *bool { return &v }

func llmConfig() config.LLMConfig {
	return config.LLMConfig{
		IncludeTLDR:       boolPtr(true),
		TLDRLanguage:      "Chinese",
		TLDRMaxWords:      80,
		TranslateAbstract: boolPtr(true),
	}
}

func matchesFixture(n int) []domain.PaperMatch {
	out := make([]domain.PaperMatch, n)
	for i := range out {
		out[i] = domain.PaperMatch{
			Paper: domain.Paper{
				ID:       fmt.Sprintf("2501.0000%d", i+1),
				Title:    fmt.Sprintf("Paper %d", i+1),
				Abstract: "An abstract.",
			},
			Score: 0.9,
			Stars: 5,
		}
	}
	return out
}

func TestAugmentFillsFields(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		`{"tldr": "short summary", "translated_abstract": "translated"}`,
	}}
	a := New(completer, llmConfig(), nil)

	out := a.Augment(context.Background(), matchesFixture(1))

	require.Len(t, out, 1)
	assert.Equal(t, "short summary", out[0].TLDR)
	assert.Equal(t, "translated", out[0].TranslatedAbstract)
}

func TestAugmentDegradesSingleItemOnly(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{
			`{"tldr": "first", "translated_abstract": "first-t"}`,
			`this is not json at all`,
			`{"tldr": "third", "translated_abstract": "third-t"}`,
		},
	}
	a := New(completer, llmConfig(), nil)

	in := matchesFixture(3)
	out := a.Augment(context.Background(), in)

	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].TLDR)
	assert.Empty(t, out[1].TLDR, "malformed response leaves fields empty")
	assert.Empty(t, out[1].TranslatedAbstract)
	assert.Equal(t, in[1].Paper, out[1].Paper, "degraded item is retained")
	assert.Equal(t, "third", out[2].TLDR, "neighbors are untouched")
	assert.Equal(t, 3, completer.calls, "one independent call per item")
}

func TestAugmentCompleterErrorDegrades(t *testing.T) {
	completer := &scriptedCompleter{errs: []error{errors.New("timeout")}}
	a := New(completer, llmConfig(), nil)

	out := a.Augment(context.Background(), matchesFixture(1))

	require.Len(t, out, 1)
	assert.Empty(t, out[0].TLDR)
	assert.Equal(t, 0.9, out[0].Score, "scoring fields survive augmentation failure")
}

func TestAugmentToleratesCodeFences(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		"```json\n{\"tldr\": \"fenced\", \"translated_abstract\": \"ok\"}\n```",
	}}
	a := New(completer, llmConfig(), nil)

	out := a.Augment(context.Background(), matchesFixture(1))
	assert.Equal(t, "fenced", out[0].TLDR)
}

func TestAugmentRejectsMissingKeys(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{`{"unrelated": "value"}`}}
	a := New(completer, llmConfig(), nil)

	out := a.Augment(context.Background(), matchesFixture(1))
	assert.Empty(t, out[0].TLDR)
	assert.Empty(t, out[0].TranslatedAbstract)
}

func TestAugmentDisabledPassthrough(t *testing.T) {
	cfg := llmConfig()
	cfg.IncludeTLDR = boolPtr(false)
	cfg.TranslateAbstract = boolPtr(false)
	completer := &scriptedCompleter{}
	a := New(completer, cfg, nil)

	in := matchesFixture(2)
	out := a.Augment(context.Background(), in)

	assert.Equal(t, in, out)
	assert.Zero(t, completer.calls)
}

func TestAugmentNilCompleterPassthrough(t *testing.T) {
	a := New(nil, llmConfig(), nil)
	in := matchesFixture(2)
	assert.Equal(t, in, a.Augment(context.Background(), in))
}

func TestAugmentPromptCarriesConstraints(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{`{"tldr": "x", "translated_abstract": "y"}`}}
	a := New(completer, llmConfig(), nil)

	a.Augment(context.Background(), matchesFixture(1))

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "80 words")
	assert.Contains(t, completer.prompts[0], "Chinese")
	assert.Contains(t, completer.prompts[0], "Paper 1")
}

func TestParseEnrichmentTranslationOnly(t *testing.T) {
	payload, err := parseEnrichment(`{"translated_abstract": "only this"}`, false, true)
	require.NoError(t, err)
	assert.Equal(t, "only this", payload.TranslatedAbstract)

	_, err = parseEnrichment(`{}`, false, true)
	assert.Error(t, err)
}
