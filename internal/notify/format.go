package notify

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ArxivDigest/internal/domain"
)

const (
	maxAuthorsShown    = 5
	maxTagsShown       = 6
	abstractPreviewLen = 300
)

// BuildBlocks renders the digest as ordered Markdown blocks: one
// header block followed by one block per match. Concatenating the
// blocks yields the full document; the chunker never splits inside a
// block so every chunk stays independently readable.
func BuildBlocks(title, query string, matches []domain.PaperMatch, now time.Time) []string {
	header := fmt.Sprintf("# %s\n\n%s · query `%s` · **%d** matching papers\n",
		title, now.Format("2006-01-02"), query, len(matches))

	if len(matches) == 0 {
		return []string{header, "\n---\n\nNo new matching papers today.\n"}
	}

	blocks := make([]string, 0, len(matches)+1)
	blocks = append(blocks, header)
	for i, match := range matches {
		blocks = append(blocks, "\n---\n\n"+matchMarkdown(i+1, match)+"\n")
	}
	return blocks
}

func matchMarkdown(idx int, match domain.PaperMatch) string {
	paper := match.Paper
	var lines []string

	if paper.URL != "" {
		lines = append(lines, fmt.Sprintf("**%d. [%s](%s)**", idx, paper.Title, paper.URL))
	} else {
		lines = append(lines, fmt.Sprintf("**%d. %s**", idx, paper.Title))
	}

	scoreLine := fmt.Sprintf("%s score: %.2f", Stars(match.Stars), match.Score)
	if short := shortLink(paper.URL); short != "" {
		scoreLine += fmt.Sprintf(" | [%s](%s)", short, paper.URL)
	}
	lines = append(lines, scoreLine)

	if authors := joinAuthors(paper.Authors); authors != "" {
		lines = append(lines, "**Authors:** "+authors)
	}
	if tags := joinTags(paper.Categories); tags != "" {
		lines = append(lines, "**Tags:** "+tags)
	}

	switch {
	case match.TLDR != "":
		lines = append(lines, "**TLDR:** "+strings.TrimPrefix(match.TLDR, "TLDR: "))
	case match.TranslatedAbstract != "":
		lines = append(lines, "**Abstract:** "+match.TranslatedAbstract)
	case paper.Abstract != "":
		lines = append(lines, "**Abstract:** "+previewAbstract(paper.Abstract))
	}

	return strings.Join(lines, "\n")
}

// previewAbstract truncates long abstracts on a rune boundary so a
// multi-byte character is never cut mid-sequence.
func previewAbstract(abstract string) string {
	if len(abstract) <= abstractPreviewLen {
		return abstract
	}
	cut := abstractPreviewLen
	for cut > 0 && !utf8.RuneStart(abstract[cut]) {
		cut--
	}
	return abstract[:cut] + "..."
}

// Stars renders a rating as a fixed-width glyph run.
func Stars(n int) string {
	if n < 1 {
		n = 1
	}
	return strings.Repeat("⭐", n)
}

// joinAuthors truncates long author lists: the first four, an
// ellipsis, and the last.
func joinAuthors(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	if len(authors) <= maxAuthorsShown {
		return strings.Join(authors, ", ")
	}
	shown := append([]string{}, authors[:maxAuthorsShown-1]...)
	shown = append(shown, "...", authors[len(authors)-1])
	return strings.Join(shown, ", ")
}

func joinTags(tags []string) string {
	if len(tags) > maxTagsShown {
		tags = tags[:maxTagsShown]
	}
	return strings.Join(tags, ", ")
}

func shortLink(url string) string {
	if url == "" {
		return ""
	}
	link := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	return strings.TrimSuffix(link, "/")
}
