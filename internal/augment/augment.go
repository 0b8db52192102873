package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

const systemPrompt = "You are a research assistant. Reply with a single JSON object and nothing else."

// Augmenter attaches an LLM-generated TLDR and, optionally, a
// translated abstract to each selected match. It only ever sees the
// final capped set, one independent call per item.
type Augmenter struct {
	completer         ports.Completer
	logger            *slog.Logger
	includeTLDR       bool
	translateAbstract bool
	language          string
	maxWords          int
}

// New wires the completer; a nil completer disables augmentation.
func New(completer ports.Completer, cfg config.LLMConfig, logger *slog.Logger) *Augmenter {
	return &Augmenter{
		completer:         completer,
		logger:            logger,
		includeTLDR:       config.Enabled(cfg.IncludeTLDR),
		translateAbstract: config.Enabled(cfg.TranslateAbstract),
		language:          cfg.TLDRLanguage,
		maxWords:          cfg.TLDRMaxWords,
	}
}

// Augment enriches matches in input order and never fails the batch:
// a malformed or missing response leaves that item's fields empty and
// the loop moves on. The returned slice aligns positionally with the
// input.
func (a *Augmenter) Augment(ctx context.Context, matches []domain.PaperMatch) []domain.PaperMatch {
	if a == nil || a.completer == nil {
		return matches
	}
	if !a.includeTLDR && !a.translateAbstract {
		return matches
	}

	out := make([]domain.PaperMatch, len(matches))
	copy(out, matches)

	for i := range out {
		payload, err := a.augmentOne(ctx, out[i].Paper)
		if err != nil {
			a.warn("augmentation failed", "paper", out[i].Paper.ID, "error", err)
			continue
		}
		out[i].TLDR = payload.TLDR
		out[i].TranslatedAbstract = payload.TranslatedAbstract
	}
	return out
}

type enrichment struct {
	TLDR               string `json:"tldr"`
	TranslatedAbstract string `json:"translated_abstract"`
}

func (a *Augmenter) augmentOne(ctx context.Context, paper domain.Paper) (enrichment, error) {
	raw, err := a.completer.Complete(ctx, systemPrompt, a.prompt(paper), true)
	if err != nil {
		return enrichment{}, err
	}
	return parseEnrichment(raw, a.includeTLDR, a.translateAbstract && paper.Abstract != "")
}

func (a *Augmenter) prompt(paper domain.Paper) string {
	var b strings.Builder

	b.WriteString("Given this paper, respond with a JSON object")
	lang := a.language
	if lang == "" {
		lang = "English"
	}

	var keys []string
	if a.includeTLDR {
		maxWords := a.maxWords
		if maxWords <= 0 {
			maxWords = 80
		}
		keys = append(keys, fmt.Sprintf("%q: a summary of at most %d words, written in %s", "tldr", maxWords, lang))
	}
	if a.translateAbstract && paper.Abstract != "" {
		keys = append(keys, fmt.Sprintf("%q: the abstract translated into %s", "translated_abstract", lang))
	}
	b.WriteString(" with the keys ")
	b.WriteString(strings.Join(keys, " and "))
	b.WriteString(".\n\nTitle: ")
	b.WriteString(paper.Title)
	if paper.Abstract != "" {
		b.WriteString("\nAbstract: ")
		b.WriteString(paper.Abstract)
	}
	return b.String()
}

// parseEnrichment parses a strict JSON mapping out of the model
// response. The error carries the failure reason; callers degrade the
// single item and continue.
func parseEnrichment(raw string, wantTLDR, wantTranslation bool) (enrichment, error) {
	body := stripFences(raw)
	if body == "" {
		return enrichment{}, fmt.Errorf("empty response")
	}

	var payload enrichment
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return enrichment{}, fmt.Errorf("not a JSON object: %w", err)
	}

	payload.TLDR = strings.TrimSpace(payload.TLDR)
	payload.TranslatedAbstract = strings.TrimSpace(payload.TranslatedAbstract)

	if wantTLDR && payload.TLDR == "" && (!wantTranslation || payload.TranslatedAbstract == "") {
		return enrichment{}, fmt.Errorf("missing recognized keys")
	}
	if !wantTLDR && wantTranslation && payload.TranslatedAbstract == "" {
		return enrichment{}, fmt.Errorf("missing recognized keys")
	}
	return payload, nil
}

// stripFences tolerates models that wrap JSON in Markdown code fences
// despite the structured-output request.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if !strings.HasPrefix(s, "{") {
		start := strings.IndexByte(s, '{')
		end := strings.LastIndexByte(s, '}')
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	}
	return s
}

func (a *Augmenter) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
