package classifier

import (
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	defaultBuckets = 1 << 14
	padID          = 0
)

// hashTokenizer separa en palabras y las proyecta a buckets con FNV-1a. El id 0 es padding.
type hashTokenizer struct {
	buckets int
}

func newHashTokenizer(buckets int) hashTokenizer {
	if buckets < 2 {
		buckets = defaultBuckets
	}
	return hashTokenizer{buckets: buckets}
}

func (t hashTokenizer) Encode(text string, maxLen int, pad bool) Encoding {
	words := splitWords(text)
	if maxLen > 0 && len(words) > maxLen {
		words = words[:maxLen]
	}
	size := len(words)
	if pad && maxLen > size {
		size = maxLen
	}
	enc := Encoding{IDs: make([]int, size), Mask: make([]int, size)}
	for i, w := range words {
		enc.IDs[i] = t.id(w)
		enc.Mask[i] = 1
	}
	return enc
}

func (t hashTokenizer) id(word string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return 1 + int(h.Sum32()%uint32(t.buckets-1))
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
