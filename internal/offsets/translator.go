// Package offsets implements a bidirectional character-offset translator
// between raw_text and markdown_text using a difflib-style matching-blocks
// table.
package offsets

import (
	"github.com/rezonia/docingest/internal/model"
)

// VerificationThreshold is the minimum fuzzy similarity a translated
// substring must have against the source-side substring for the translated
// offsets to be trusted.
const VerificationThreshold = 0.7

// block is one element of the matching-blocks table: raw[RawStart:RawStart+Length]
// equals markdown[MarkdownStart:MarkdownStart+Length].
type block struct {
	RawStart      int
	MarkdownStart int
	Length        int
}

// Translator maps offsets between raw_text and markdown_text. When
// markdown_text is empty, it runs in pass-through mode (raw == markdown).
type Translator struct {
	raw      string
	markdown string
	passThrough bool
	blocks   []block
}

// New builds a Translator from the two representations of the same
// document. Pass an empty markdown string when no markdown normalization
// was produced; the translator then runs pass-through.
func New(rawText, markdownText string) *Translator {
	if markdownText == "" {
		return &Translator{raw: rawText, markdown: rawText, passThrough: true}
	}
	t := &Translator{raw: rawText, markdown: markdownText}
	t.blocks = matchingBlocks(rawText, markdownText)
	return t
}

// RawText and MarkdownText expose the two representations for re-extraction
// during verification.
func (t *Translator) RawText() string      { return t.raw }
func (t *Translator) MarkdownText() string { return t.markdown }

// ToMarkdown translates a raw-text offset to its markdown-text equivalent.
func (t *Translator) ToMarkdown(o int) int {
	if t.passThrough {
		return o
	}
	return translate(t.blocks, o, true)
}

// ToRaw translates a markdown-text offset to its raw-text equivalent.
func (t *Translator) ToRaw(o int) int {
	if t.passThrough {
		return o
	}
	return translate(t.blocks, o, false)
}

// translate finds the block containing o on the source side (raw side when
// fromRaw is true) and linearly interpolates onto the target side; absent a
// containing block, it interpolates across the nearest surrounding blocks.
func translate(blocks []block, o int, fromRaw bool) int {
	srcStart := func(b block) int {
		if fromRaw {
			return b.RawStart
		}
		return b.MarkdownStart
	}
	dstStart := func(b block) int {
		if fromRaw {
			return b.MarkdownStart
		}
		return b.RawStart
	}

	var prev *block
	for i := range blocks {
		b := blocks[i]
		s := srcStart(b)
		if o >= s && o < s+b.Length {
			return dstStart(b) + (o - s)
		}
		if s+b.Length <= o {
			prev = &blocks[i]
		} else {
			// o is before this block; interpolate across the gap between
			// prev (or the document start) and this block.
			var gapStartSrc, gapStartDst int
			if prev != nil {
				gapStartSrc = srcStart(*prev) + prev.Length
				gapStartDst = dstStart(*prev) + prev.Length
			}
			gapEndSrc := s
			gapEndDst := dstStart(b)

			if gapEndSrc <= gapStartSrc {
				return gapStartDst
			}
			frac := float64(o-gapStartSrc) / float64(gapEndSrc-gapStartSrc)
			return gapStartDst + int(frac*float64(gapEndDst-gapStartDst))
		}
	}

	// o is past the last block: extrapolate from the last block's end.
	if prev != nil {
		return dstStart(*prev) + prev.Length + (o - (srcStart(*prev) + prev.Length))
	}
	return o
}

// matchingBlocks builds the LCS-based matching-blocks table between a and b,
// equivalent to difflib.SequenceMatcher.get_matching_blocks(). It uses a
// recursive longest-common-substring split with an autojunk heuristic that
// ignores characters appearing in more than 1% of a long string, the way
// difflib avoids pathological blowups on repetitive text.
func matchingBlocks(a, b string) []block {
	b2j := buildB2J(b)

	var raw []block
	var recurse func(alo, ahi, blo, bhi int)
	recurse = func(alo, ahi, blo, bhi int) {
		i, j, size := longestMatch(a, b, b2j, alo, ahi, blo, bhi)
		if size == 0 {
			return
		}
		if alo < i && blo < j {
			recurse(alo, i, blo, j)
		}
		raw = append(raw, block{RawStart: i, MarkdownStart: j, Length: size})
		if i+size < ahi && j+size < bhi {
			recurse(i+size, ahi, j+size, bhi)
		}
	}
	recurse(0, len(a), 0, len(b))

	return mergeAdjacent(raw)
}

func buildB2J(b string) map[byte][]int {
	b2j := make(map[byte][]int)
	for i := 0; i < len(b); i++ {
		b2j[b[i]] = append(b2j[b[i]], i)
	}

	// autojunk: a character occupying more than 1% of a string with length
	// >= 200 is treated as "popular" and dropped from the index, mirroring
	// difflib's heuristic for avoiding O(n^2) behavior on repetitive text.
	if len(b) >= 200 {
		threshold := len(b)/100 + 1
		for c, idxs := range b2j {
			if len(idxs) > threshold {
				delete(b2j, c)
			}
		}
	}
	return b2j
}

// longestMatch finds the longest matching run between a[alo:ahi] and
// b[blo:bhi], returning its start in a, start in b, and length.
func longestMatch(a, b string, b2j map[byte][]int, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj, bestsize = alo, blo, 0
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}

// mergeAdjacent collapses blocks that are contiguous on both sides, which
// can occur at the boundary between two recursive splits.
func mergeAdjacent(blocks []block) []block {
	if len(blocks) == 0 {
		return blocks
	}
	out := make([]block, 0, len(blocks))
	out = append(out, blocks[0])
	for _, b := range blocks[1:] {
		last := &out[len(out)-1]
		if last.RawStart+last.Length == b.RawStart && last.MarkdownStart+last.Length == b.MarkdownStart {
			last.Length += b.Length
			continue
		}
		out = append(out, b)
	}
	return out
}

// VerifyTranslation re-extracts the substring at [start,end) on the target
// side and compares it with fuzzy similarity against sourceSnippet. If the
// similarity falls below VerificationThreshold, the caller should null out
// the offsets rather than persist a likely-wrong range.
func VerifyTranslation(sourceSnippet, targetText string, start, end int) bool {
	if start < 0 || end > len(targetText) || start >= end {
		return false
	}
	candidate := targetText[start:end]
	return model.FuzzyRatio(sourceSnippet, candidate) >= VerificationThreshold
}
