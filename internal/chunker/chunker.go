// Package chunker splits a document body into overlapping chunks on
// paragraph boundaries.
package chunker

import (
	"strings"

	"github.com/rezonia/docingest/internal/model"
)

const (
	DefaultMaxChars     = 16000
	DefaultOverlapChars = 800

	// paragraphSearchFraction is the fraction of the window (from the end)
	// within which a paragraph break is preferred over a hard cut.
	paragraphSearchFraction = 0.2
)

// Options configures the chunker. Overlap must be smaller than MaxChars.
type Options struct {
	MaxChars     int
	OverlapChars int
}

func DefaultOptions() Options {
	return Options{MaxChars: DefaultMaxChars, OverlapChars: DefaultOverlapChars}
}

// Chunk splits text into an ordered, non-lossy sequence of chunks. Offsets
// are inclusive-start/exclusive-end; concatenating the non-overlapping
// prefix of each chunk reconstructs text exactly.
func Chunk(text string, opts Options) []model.Chunk {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.OverlapChars < 0 || opts.OverlapChars >= opts.MaxChars {
		opts.OverlapChars = DefaultOverlapChars
	}

	n := len(text)
	if n <= opts.MaxChars {
		return []model.Chunk{{Index: 0, Total: 1, StartChar: 0, EndChar: n, Text: text}}
	}

	var starts, ends []int
	start := 0
	stride := opts.MaxChars - opts.OverlapChars
	if stride <= 0 {
		stride = opts.MaxChars
	}

	for start < n {
		end := start + opts.MaxChars
		if end >= n {
			end = n
		} else {
			end = preferParagraphBreak(text, start, end)
		}

		starts = append(starts, start)
		ends = append(ends, end)

		if end >= n {
			break
		}
		next := start + stride
		if back := end - opts.OverlapChars; back > start && back < next {
			// A paragraph break pulled end back; resume just before it so no
			// text falls between this chunk and the next.
			next = back
		}
		start = next
		if start >= n {
			break
		}
	}

	chunks := make([]model.Chunk, len(starts))
	for i := range starts {
		chunks[i] = model.Chunk{
			Index:     i,
			Total:     len(starts),
			StartChar: starts[i],
			EndChar:   ends[i],
			Text:      text[starts[i]:ends[i]],
		}
	}
	return chunks
}

// preferParagraphBreak looks for a "\n\n" boundary within the last 20% of
// the [start, hardEnd) window and returns its position (end of the break)
// if found; otherwise returns hardEnd unchanged (hard cut).
func preferParagraphBreak(text string, start, hardEnd int) int {
	windowLen := hardEnd - start
	searchFrom := start + int(float64(windowLen)*(1-paragraphSearchFraction))
	if searchFrom < start {
		searchFrom = start
	}

	window := text[searchFrom:hardEnd]
	idx := strings.LastIndex(window, "\n\n")
	if idx == -1 {
		return hardEnd
	}
	return searchFrom + idx + len("\n\n")
}

// CoverageTotal returns the sum of each chunk's lossless contribution,
// Σ (chunk.end - max(chunk.start, prev.end)), used to verify the chunker's
// total-coverage invariant.
func CoverageTotal(chunks []model.Chunk) int {
	total := 0
	prevEnd := 0
	for _, c := range chunks {
		start := c.StartChar
		if start < prevEnd {
			start = prevEnd
		}
		if c.EndChar > start {
			total += c.EndChar - start
		}
		prevEnd = c.EndChar
	}
	return total
}
