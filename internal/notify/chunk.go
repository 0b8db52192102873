package notify

// hardMessageLimit is the WeChat Work per-message ceiling; the
// configured soft limit must stay under it.
const hardMessageLimit = 4096

// defaultChunkLimit keeps chunks comfortably below the hard ceiling.
const defaultChunkLimit = 1000

// SplitChunks packs whole blocks into ordered chunks of at most limit
// characters. Blocks are never split, so a block longer than the
// limit ships as a chunk of its own. Concatenating the chunks in
// order reproduces the concatenation of the blocks.
func SplitChunks(blocks []string, limit int) []string {
	if limit <= 0 || limit > hardMessageLimit {
		limit = defaultChunkLimit
	}

	var chunks []string
	var current string
	for _, block := range blocks {
		if current != "" && len(current)+len(block) > limit {
			chunks = append(chunks, current)
			current = ""
		}
		current += block
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
