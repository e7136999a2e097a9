package email

import (
	"embed"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"regexp"
	"strings"
	"sync"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

// TemplateManager хранит шаблоны писем: общий layout + шаблон на письмо
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager загружает встроенные шаблоны
func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}

	layout, err := fs.ReadFile(builtinTemplates, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read email layout: %w", err)
	}

	for _, name := range []string{TemplateWelcome, TemplatePasswordReset} {
		body, err := fs.ReadFile(builtinTemplates, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		if err := tm.AddTemplate(name, string(layout), string(body)); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

// AddTemplate - layout определяет "email", тело определяет "content"
func (tm *TemplateManager) AddTemplate(name, layout, body string) error {
	tpl, err := template.New(name).Parse(layout)
	if err != nil {
		return fmt.Errorf("failed to parse layout for %s: %w", name, err)
	}
	if _, err := tpl.Parse(body); err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()
	return nil
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

var (
	styleRe  = regexp.MustCompile(`(?is)<(style|head)[^>]*>.*?</(style|head)>`)
	breakRe  = regexp.MustCompile(`(?i)<(br|/p|/h[1-6]|/tr|/li)\s*/?>`)
	linkRe   = regexp.MustCompile(`(?is)<a[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spacesRe = regexp.MustCompile(`[ \t]+`)
	blankRe  = regexp.MustCompile(`\n\s*\n+`)
)

// HTMLToText - текстовая альтернатива письма
func HTMLToText(s string) string {
	s = styleRe.ReplaceAllString(s, "")
	s = linkRe.ReplaceAllString(s, "$2 [$1]")
	s = breakRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spacesRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
