// Package view renders the server-side HTML pages. Every page template is
// parsed together with layout.html and cached; DEV=1 disables the cache so
// template edits show up without a restart.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diewo77/topo-leves/i18n"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	langResolver = func(_ *http.Request) string { return "fr" }
)

// SetLangResolver lets the host app plug its preference middleware in
// without this package importing it.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetBaseDir overrides template discovery, mainly for tests.
func SetBaseDir(dir string) { baseDir = dir }

func resolveBaseDir() string {
	once.Do(func() {
		if baseDir != "" {
			return
		}
		// Work from repo root or a subdir (e.g. cmd/server).
		for _, c := range []string{"templates", "../templates", "../../templates"} {
			if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
				baseDir = filepath.Clean(c)
				return
			}
		}
		baseDir = "templates"
	})
	return baseDir
}

func funcsFor(lang string) template.FuncMap {
	return template.FuncMap{
		"T":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"date": func(t time.Time) string { return t.Format("2006-01-02") },
	}
}

func load(name, lang string) (*template.Template, error) {
	key := lang + "|" + name
	dev := os.Getenv("DEV") == "1"
	if !dev {
		tplCache.RLock()
		if t, ok := tplCache.m[key]; ok {
			tplCache.RUnlock()
			return t, nil
		}
		tplCache.RUnlock()
	}
	base := resolveBaseDir()
	t, err := template.New("layout.html").Funcs(funcsFor(lang)).
		ParseFiles(filepath.Join(base, "layout.html"), filepath.Join(base, name))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if !dev {
		tplCache.Lock()
		tplCache.m[key] = t
		tplCache.Unlock()
	}
	return t, nil
}

// Render writes the named page inside the layout. The page is rendered to a
// buffer first so a template error never produces a half-written response.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	lang := langResolver(r)
	data["Lang"] = lang
	t, err := load(name, lang)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}
