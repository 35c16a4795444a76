// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/carekg/internal/container"
)

// DefaultPDFImage is the container image used when CleanConfig.PDFImage is
// empty.
const DefaultPDFImage = "markitdown:latest"

// PDFExtractor turns a PDF file into Markdown text.
type PDFExtractor interface {
	Extract(ctx context.Context, pdfPath string) (string, error)
}

// MarkitdownExtractor converts PDFs by piping them through the markitdown
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type MarkitdownExtractor struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownExtractor creates an extractor that runs image (default
// DefaultPDFImage) on rt. It verifies that the image exists locally before
// returning.
func NewMarkitdownExtractor(ctx context.Context, rt container.Runtime, image string) (*MarkitdownExtractor, error) {
	if image == "" {
		image = DefaultPDFImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("pdf image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownExtractor{runtime: rt, image: image}, nil
}

// Extract reads the PDF at pdfPath, pipes it through the container and
// returns the resulting Markdown.
func (m *MarkitdownExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with %s: %w", pdfPath, m.image, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%s produced empty output for %s", m.image, pdfPath)
	}
	return out.String(), nil
}

var (
	headingRe    = regexp.MustCompile(`^#{1,6}\s+`)
	listMarkerRe = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
	ruleRe       = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,}|={3,})$`)
	pageNumberRe = regexp.MustCompile(`(?i)^(?:page\s+)?\d+(?:\s*(?:of|/)\s*\d+)?$`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	strongRe     = regexp.MustCompile(`\*\*|__`)
)

// keepMarkdown reduces converter Markdown to titles, list items and
// narrative paragraphs, one per line. Tables, images, code blocks, HTML
// comments, rules and bare page numbers are dropped.
func keepMarkdown(md string) string {
	var (
		out       []string
		para      []string
		inFence   bool
		inComment bool
	)
	endPara := func() {
		if len(para) > 0 {
			out = append(out, strings.Join(para, " "))
			para = nil
		}
	}
	emit := func(s string) {
		endPara()
		if s = inline(s); s != "" {
			out = append(out, s)
		}
	}

	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimSpace(raw)

		if inComment {
			if strings.Contains(line, "-->") {
				inComment = false
			}
			continue
		}
		if strings.HasPrefix(line, "```") {
			endPara()
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		switch {
		case line == "":
			endPara()
		case strings.HasPrefix(line, "<!--"):
			endPara()
			inComment = !strings.Contains(line, "-->")
		case strings.HasPrefix(line, "|"), strings.HasPrefix(line, "!["):
			endPara()
		case ruleRe.MatchString(line), pageNumberRe.MatchString(line):
			endPara()
		case headingRe.MatchString(line):
			emit(headingRe.ReplaceAllString(line, ""))
		case listMarkerRe.MatchString(line):
			emit(listMarkerRe.ReplaceAllString(line, ""))
		default:
			if s := inline(line); s != "" {
				para = append(para, s)
			}
		}
	}
	endPara()
	return strings.Join(out, "\n")
}

// inline strips link targets and strong emphasis markers.
func inline(s string) string {
	s = linkRe.ReplaceAllString(s, "$1")
	s = strongRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
