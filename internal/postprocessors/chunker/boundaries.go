package chunker

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// boundaryKind ranks split points. Higher values are preferred.
type boundaryKind uint8

const (
	kindNone boundaryKind = iota
	kindWord
	kindSentence
	kindParagraph
)

var (
	blankLinePattern = regexp.MustCompile(`\n[ \t]*\n`)
	sentencePattern  = regexp.MustCompile(`[.!?]["')\]]*\s+`)
	lineEndPattern   = regexp.MustCompile(`\n`)
	wordPattern      = regexp.MustCompile(`\s+`)
)

var markdownParser = goldmark.DefaultParser()

// boundaries returns the strongest split kind at every byte offset of
// content, indexed 0..len(content). A boundary at offset i means a chunk
// may end just before content[i].
func boundaries(content string) []boundaryKind {
	kinds := make([]boundaryKind, len(content)+1)
	mark := func(off int, kind boundaryKind) {
		if off > 0 && off <= len(content) && kind > kinds[off] {
			kinds[off] = kind
		}
	}

	markMatches := func(re *regexp.Regexp, kind boundaryKind) {
		for _, loc := range re.FindAllStringIndex(content, -1) {
			mark(loc[1], kind)
		}
	}

	markMatches(wordPattern, kindWord)
	markMatches(lineEndPattern, kindSentence)
	markMatches(sentencePattern, kindSentence)
	markMatches(blankLinePattern, kindParagraph)

	for _, off := range blockStarts([]byte(content)) {
		mark(off, kindParagraph)
	}

	return kinds
}

// blockStarts returns the line-start offsets of Markdown block nodes.
// Fenced code blocks start at their opening fence line.
func blockStarts(src []byte) []int {
	doc := markdownParser.Parse(text.NewReader(src))

	var starts []int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := n.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		off := lineStart(src, lines.At(0).Start)
		if n.Kind() == ast.KindFencedCodeBlock {
			off = lineStart(src, off-1)
		}
		starts = append(starts, off)
		return ast.WalkContinue, nil
	})
	return starts
}

// lineStart returns the offset of the first byte of the line containing pos.
func lineStart(src []byte, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos > len(src) {
		pos = len(src)
	}
	for i := pos - 1; i >= 0; i-- {
		if src[i] == '\n' {
			return i + 1
		}
	}
	return 0
}
