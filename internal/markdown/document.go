// Package markdown turns post bodies into terminal output. Language-tagged
// fenced code blocks are split out so they can be highlighted and copied on
// their own; everything else is rendered as prose.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// SegmentKind distinguishes prose from code segments.
type SegmentKind int

const (
	SegmentProse SegmentKind = iota
	SegmentCode
)

// Segment is a contiguous slice of the rendered document.
type Segment struct {
	Kind SegmentKind
	// Text holds the markdown source of a prose segment.
	Text string
	// Block indexes Document.CodeBlocks for code segments.
	Block int
}

// CodeBlock is a fenced block that carries a language tag.
type CodeBlock struct {
	Index    int
	Language string
	Code     string
	// TopLevel blocks get their own segment; nested ones (inside lists or
	// quotes) are highlighted within their prose segment.
	TopLevel bool
}

// Document is a parsed post body.
type Document struct {
	Source     string
	Segments   []Segment
	CodeBlocks []CodeBlock
}

// Empty reports whether there is nothing to render.
func (d Document) Empty() bool {
	return len(d.Segments) == 0
}

// CopyText returns the full code of block index.
func (d Document) CopyText(index int) (string, bool) {
	if index < 0 || index >= len(d.CodeBlocks) {
		return "", false
	}
	return d.CodeBlocks[index].Code, true
}

var parser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// Parse splits source into prose and code segments.
func Parse(source string) Document {
	src := []byte(source)
	root := parser.Parse(text.NewReader(src))

	doc := Document{Source: source}
	topLevel := make(map[ast.Node]bool)
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		topLevel[n] = true
	}

	cursor := 0
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := string(fence.Language(src))
		if lang == "" {
			return ast.WalkSkipChildren, nil
		}

		block := CodeBlock{
			Index:    len(doc.CodeBlocks),
			Language: lang,
			Code:     fenceBody(fence, src),
			TopLevel: topLevel[n],
		}
		doc.CodeBlocks = append(doc.CodeBlocks, block)

		if block.TopLevel {
			start, end := fenceBounds(fence, src)
			doc.appendProse(source[cursor:start])
			doc.Segments = append(doc.Segments, Segment{Kind: SegmentCode, Block: block.Index})
			cursor = end
		}
		return ast.WalkSkipChildren, nil
	})
	doc.appendProse(source[cursor:])
	return doc
}

func (d *Document) appendProse(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	d.Segments = append(d.Segments, Segment{Kind: SegmentProse, Text: s})
}

// fenceBody joins the block lines and drops the newline that precedes the
// closing fence.
func fenceBody(fence *ast.FencedCodeBlock, src []byte) string {
	var buf bytes.Buffer
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// fenceBounds returns the byte range from the start of the opening fence
// line to the end of the closing fence line (or the end of the source when
// the fence is never closed).
func fenceBounds(fence *ast.FencedCodeBlock, src []byte) (int, int) {
	infoStart := fence.Info.Segment.Start
	start := bytes.LastIndexByte(src[:infoStart], '\n') + 1

	after := fence.Info.Segment.Stop
	if lines := fence.Lines(); lines.Len() > 0 {
		after = lines.At(lines.Len() - 1).Stop
	}
	// Skip the rest of the line we are on (the info line when the block is
	// empty) and then the closing fence line.
	if after > 0 && src[after-1] != '\n' {
		after = lineEnd(src, after)
	}
	return start, lineEnd(src, after)
}

func lineEnd(src []byte, from int) int {
	if from >= len(src) {
		return len(src)
	}
	idx := bytes.IndexByte(src[from:], '\n')
	if idx < 0 {
		return len(src)
	}
	return from + idx + 1
}
