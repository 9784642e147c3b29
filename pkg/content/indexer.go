package content

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"ai-devguide-be/pkg/utils"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	// ChunkSize and ChunkOverlap bound a single section body, in runes.
	ChunkSize    = 1500
	ChunkOverlap = 200

	keywordsPerChunk = 8
)

//go:embed pages/*.md
var builtinPages embed.FS

// section is a heading and the markdown under it, up to the next heading.
type section struct {
	heading string
	level   int
	body    string
}

// LoadBuiltin indexes the pages compiled into the binary.
func LoadBuiltin() ([]ContentChunk, error) {
	return LoadFS(builtinPages, "pages")
}

// LoadDir indexes every .md file below dir.
func LoadDir(dir string) ([]ContentChunk, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS indexes every .md file below root in fsys. Files are visited in
// lexical order so chunk order (and therefore search tie-breaks) is stable.
func LoadFS(fsys fs.FS, root string) ([]ContentChunk, error) {
	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".md") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content: %w", err)
	}
	sort.Strings(files)

	var chunks []ContentChunk
	for _, f := range files {
		src, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(f, root), "/")
		chunks = append(chunks, IndexMarkdown(rel, routeFor(rel), src)...)
	}
	return chunks, nil
}

// routeFor maps "mcp/servers.md" to "/docs/mcp/servers" and "index.md" to "/docs".
func routeFor(file string) string {
	route := strings.TrimSuffix(file, ".md")
	if route == "index" {
		route = ""
	}
	route = strings.TrimSuffix(route, "/index")
	if route == "" {
		return "/docs"
	}
	return "/docs/" + route
}

// IndexMarkdown splits one markdown page into heading sections and each section
// into overlapping chunks.
func IndexMarkdown(source, route string, src []byte) []ContentChunk {
	sections := splitSections(src)

	title := strings.TrimSuffix(path.Base(source), ".md")
	for _, s := range sections {
		if s.level == 1 {
			title = s.heading
			break
		}
	}

	var chunks []ContentChunk
	for si, s := range sections {
		body := strings.TrimSpace(s.body)
		if body == "" {
			continue
		}
		name := s.heading
		if name == "" {
			name = title
		}
		for pi, part := range utils.SplitText(body, ChunkSize, ChunkOverlap) {
			chunks = append(chunks, ContentChunk{
				ID:       fmt.Sprintf("%s#%d-%d", route, si, pi),
				Title:    title,
				Content:  part,
				Source:   source,
				Path:     route,
				Section:  name,
				Keywords: utils.TopKeywords(name+" "+part, keywordsPerChunk),
				Priority: priorityFor(s.level),
			})
		}
	}
	return chunks
}

func priorityFor(level int) float64 {
	switch level {
	case 0, 1:
		return 1.0
	case 2:
		return 0.8
	case 3:
		return 0.6
	default:
		return 0.5
	}
}

func splitSections(src []byte) []section {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	type mark struct {
		heading   string
		level     int
		lineStart int
		bodyStart int
	}
	var marks []mark

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(src[:seg.Start], '\n') + 1
		bodyStart := endOfLine(src, seg.Stop)
		// setext headings carry an underline row
		if next := endOfLine(src, bodyStart); isUnderline(src[bodyStart:next]) {
			bodyStart = next
		}
		marks = append(marks, mark{
			heading:   strings.TrimSpace(nodeText(h, src)),
			level:     h.Level,
			lineStart: lineStart,
			bodyStart: bodyStart,
		})
	}

	var sections []section
	firstStart := len(src)
	if len(marks) > 0 {
		firstStart = marks[0].lineStart
	}
	if lead := strings.TrimSpace(string(src[:firstStart])); lead != "" {
		sections = append(sections, section{body: lead})
	}
	for i, m := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		if m.bodyStart > end {
			end = m.bodyStart
		}
		sections = append(sections, section{
			heading: m.heading,
			level:   m.level,
			body:    string(src[m.bodyStart:end]),
		})
	}
	return sections
}

func endOfLine(src []byte, from int) int {
	if from >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[from:], '\n'); i >= 0 {
		return from + i + 1
	}
	return len(src)
}

func isUnderline(line []byte) bool {
	l := bytes.TrimSpace(line)
	if len(l) == 0 {
		return false
	}
	return len(bytes.Trim(l, "=")) == 0 || len(bytes.Trim(l, "-")) == 0
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
