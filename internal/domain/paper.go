package domain

import "time"

// ProfileItem is one reference-library entry representing the user's
// interests. The corpus guarantees Abstract is non-empty.
type ProfileItem struct {
	ID       string
	Title    string
	Abstract string
	Authors  []string
	Tags     []string
}

// Paper is a candidate fetched from arXiv. ID is the base arXiv
// identifier with the version suffix stripped (2401.01234, not
// 2401.01234v2).
type Paper struct {
	ID          string
	Title       string
	Abstract    string
	Authors     []string
	Categories  []string
	URL         string
	PublishedAt time.Time
}

// PaperMatch pairs a candidate with its similarity score against the
// profile corpus. TLDR and TranslatedAbstract are filled by the
// augmenter when enabled; they stay empty when augmentation fails for
// the item, the match itself is never dropped.
type PaperMatch struct {
	Paper              Paper
	Score              float64
	Stars              int
	TLDR               string
	TranslatedAbstract string
}

// EmbedText is the text a paper is embedded under: title and abstract
// concatenated, title alone when the abstract is missing.
func (p Paper) EmbedText() string {
	if p.Abstract == "" {
		return p.Title
	}
	return p.Title + "\n" + p.Abstract
}

// EmbedText mirrors Paper.EmbedText for profile items.
func (p ProfileItem) EmbedText() string {
	if p.Abstract == "" {
		return p.Title
	}
	return p.Title + "\n" + p.Abstract
}
