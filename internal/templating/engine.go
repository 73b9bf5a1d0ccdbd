package templating

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"

	"github.com/yegors/wx-dash/pkg/logger"
)

// Engine handles template loading, caching, and rendering
type Engine struct {
	templateCache map[string]*template.Template
	cacheSize     int
	reload        bool
	cacheMutex    sync.RWMutex
	logger        *logger.Logger
}

// NewEngine creates a new template engine. With reload set every render
// reads the template from disk.
func NewEngine(cacheSize int, reload bool, log *logger.Logger) *Engine {
	if cacheSize <= 0 {
		cacheSize = 10
	}
	return &Engine{
		templateCache: make(map[string]*template.Template),
		cacheSize:     cacheSize,
		reload:        reload,
		logger:        log.Named("template-engine"),
	}
}

// Render executes the template at templatePath with data
func (e *Engine) Render(templatePath string, data any) ([]byte, error) {
	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	e.logger.Debug("Template rendered successfully",
		logger.String("template_path", templatePath),
		logger.Int("rendered_length", buf.Len()))

	return buf.Bytes(), nil
}

// getTemplate retrieves a template from cache or loads it from file
func (e *Engine) getTemplate(templatePath string) (*template.Template, error) {
	if e.reload {
		return e.loadTemplate(templatePath)
	}

	e.cacheMutex.RLock()
	if tmpl, exists := e.templateCache[templatePath]; exists {
		e.cacheMutex.RUnlock()
		return tmpl, nil
	}
	e.cacheMutex.RUnlock()

	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	// Double-check in case another goroutine loaded it while we were waiting
	if tmpl, exists := e.templateCache[templatePath]; exists {
		return tmpl, nil
	}

	tmpl, err := e.loadTemplate(templatePath)
	if err != nil {
		return nil, err
	}

	if len(e.templateCache) >= e.cacheSize {
		e.templateCache = make(map[string]*template.Template)
	}
	e.templateCache[templatePath] = tmpl
	e.logger.Debug("Template loaded and cached",
		logger.String("template_path", templatePath))

	return tmpl, nil
}

// loadTemplate loads a template from file
func (e *Engine) loadTemplate(templatePath string) (*template.Template, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file '%s': %w", templatePath, err)
	}

	tmpl, err := template.New(filepath.Base(templatePath)).Funcs(funcMap).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template file '%s': %w", templatePath, err)
	}

	return tmpl, nil
}

// ReloadTemplate forces a template to be reloaded from file
func (e *Engine) ReloadTemplate(templatePath string) error {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	tmpl, err := e.loadTemplate(templatePath)
	if err != nil {
		return err
	}

	e.templateCache[templatePath] = tmpl
	e.logger.Info("Template reloaded",
		logger.String("template_path", templatePath))

	return nil
}

// CachedCount returns the number of cached templates
func (e *Engine) CachedCount() int {
	e.cacheMutex.RLock()
	defer e.cacheMutex.RUnlock()
	return len(e.templateCache)
}
