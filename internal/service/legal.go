package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/boibazar/boibazar/internal/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrPageNotFound = errors.New("page not found")

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type LegalPage struct {
	Title       string
	Slug        string
	Content     string
	LastUpdated string
}

// LegalService serves the policy pages (terms, privacy, cookies) from
// markdown files. In development pages are re-read on every request.
type LegalService struct {
	contentDir string
	reload     bool
	parser     *markdown.Parser

	mu    sync.RWMutex
	pages map[string]*LegalPage
}

func NewLegalService(contentDir string, reload bool) *LegalService {
	return &LegalService{
		contentDir: filepath.Join(contentDir, "legal"),
		reload:     reload,
		parser:     markdown.NewParser(),
		pages:      make(map[string]*LegalPage),
	}
}

func (s *LegalService) LoadPages() error {
	files, err := os.ReadDir(s.contentDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read legal directory: %w", err)
	}

	pages := make(map[string]*LegalPage)
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		slug := strings.TrimSuffix(file.Name(), ".md")
		page, err := s.loadPage(slug)
		if err != nil {
			return fmt.Errorf("failed to load page %s: %w", slug, err)
		}
		pages[slug] = page
	}

	s.mu.Lock()
	s.pages = pages
	s.mu.Unlock()
	return nil
}

func (s *LegalService) loadPage(slug string) (*LegalPage, error) {
	filePath := filepath.Join(s.contentDir, slug+".md")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	doc, err := s.parser.Render(content)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", slug, err)
	}

	page := &LegalPage{
		Title:       doc.Title,
		Slug:        slug,
		Content:     string(doc.HTML),
		LastUpdated: formatDate(doc.LastUpdated),
	}
	if page.Title == "" {
		page.Title = cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
	}
	if page.LastUpdated == "" {
		info, err := os.Stat(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get file info: %w", err)
		}
		page.LastUpdated = info.ModTime().Format(displayDate)
	}
	return page, nil
}

func (s *LegalService) Page(slug string) (*LegalPage, error) {
	if !slugPattern.MatchString(slug) {
		return nil, ErrPageNotFound
	}

	if s.reload {
		if err := s.LoadPages(); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	page, ok := s.pages[slug]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrPageNotFound
	}

	return page, nil
}

const displayDate = "January 2, 2006"

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02.01.2006", "Jan 2, 2006", displayDate, time.RFC3339}

// formatDate rewrites a frontmatter date for display. Unknown layouts are
// shown as written.
func formatDate(value string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(displayDate)
		}
	}
	return value
}
