package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

//go:embed docs/*.md
var docFiles embed.FS

// DocsService renders the built-in operator documentation
type DocsService interface {
	Guide() (template.HTML, error)
}

type docsService struct {
	md   goldmark.Markdown
	once sync.Once
	html template.HTML
	err  error
}

// NewDocsService creates a new docs service
func NewDocsService() DocsService {
	return &docsService{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Guide returns the operator guide as HTML. The embedded markdown is trusted.
func (s *docsService) Guide() (template.HTML, error) {
	s.once.Do(func() {
		source, err := docFiles.ReadFile("docs/guide.md")
		if err != nil {
			s.err = fmt.Errorf("failed to read guide: %w", err)
			return
		}

		var buf bytes.Buffer
		if err := s.md.Convert(source, &buf); err != nil {
			s.err = fmt.Errorf("failed to convert guide: %w", err)
			return
		}
		log.Debug().Int("html_len", buf.Len()).Msg("Rendered operator guide")
		s.html = template.HTML(buf.String())
	})
	return s.html, s.err
}
