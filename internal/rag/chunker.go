package rag

import "strings"

// ChunkConfig bounds chunk sizes in characters.
type ChunkConfig struct {
	MinSize int
	MaxSize int
}

func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MinSize: 200, MaxSize: 1000}
}

// Chunk splits text on paragraph boundaries, merging small paragraphs and
// splitting oversized ones at sentence ends.
func Chunk(text string, config ChunkConfig) []string {
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > config.MaxSize {
			flush()
			chunks = append(chunks, splitSentences(para, config.MaxSize)...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > config.MaxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)

		if current.Len() >= config.MinSize {
			flush()
		}
	}
	flush()

	return chunks
}

func splitSentences(text string, maxSize int) []string {
	var out []string
	var current strings.Builder

	for _, sentence := range sentences(text) {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxSize {
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
		}
		for len(sentence) > maxSize {
			out = append(out, sentence[:maxSize])
			sentence = sentence[maxSize:]
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
