package state

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"

	"pstyle/config"
	"pstyle/css"
)

func testEnv(t *testing.T, engine config.EngineConfig) *LocalEnv {
	t.Helper()
	if engine.Medium.Type == "" {
		engine.Medium.Type = "print"
	}
	env := newLocalEnv()
	env.Log = zaptest.NewLogger(t)
	env.Cfg = &config.Config{Version: 1, Engine: engine}
	return env
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func selectors(rules []*css.StyleRule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Selector.String()
	}
	return out
}

func TestDecodeStylesheet(t *testing.T) {
	cyrillic, err := charmap.Windows1251.NewEncoder().String(`p::before { content: "Глава" }`)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
		env   *LocalEnv
		want  string
	}{
		{"utf8", `p { content: "Глава" }`, &LocalEnv{}, `p { content: "Глава" }`},
		{"bom", "\xEF\xBB\xBFp { color: red }", &LocalEnv{}, "p { color: red }"},
		{"charset rule", `@charset "windows-1251";` + cyrillic, &LocalEnv{}, `p::before { content: "Глава" }`},
		{"forced", cyrillic, &LocalEnv{Charset: charmap.Windows1251}, `p::before { content: "Глава" }`},
		{"unknown charset", `@charset "klingon"; p {}`, &LocalEnv{}, `p {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := decodeStylesheet([]byte(tt.input), tt.env.Charset)
			if err != nil {
				t.Fatalf("decodeStylesheet() error = %v", err)
			}
			if !strings.HasSuffix(string(out), tt.want) {
				t.Errorf("decoded = %q, want suffix %q", out, tt.want)
			}
			if strings.HasPrefix(string(out), "\uFEFF") {
				t.Error("BOM was not removed")
			}
		})
	}
}

func TestNewEngine_Sources(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"base.css":         `@import "lib/imported.css"; @import url(screen.css) screen; p { color: red }`,
		"lib/imported.css": `@import "../base.css"; h1 { color: blue }`,
		"screen.css":       `div { color: gray }`,
		"css/linked.css":   `span { color: green }`,
		"book.html": `<html><head>
<link rel="stylesheet" href="css/linked.css">
<link rel="stylesheet" href="missing.css">
<style>em { font-style: normal }</style>
</head><body><p>text</p></body></html>`,
	})

	env := testEnv(t, config.EngineConfig{
		Stylesheets: []string{filepath.Join(dir, "base.css")},
		Embedded:    true,
	})
	docPath := filepath.Join(dir, "book.html")
	doc, err := env.LoadDocument(docPath)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}

	eng, err := env.NewEngine(doc, docPath)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	got := selectors(eng.Rules())
	want := []string{"h1", "p", "span", "em"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rules = %v, want %v", got, want)
	}
}

func TestNewEngine_Archive(t *testing.T) {
	dir := t.TempDir()
	arcPath := filepath.Join(dir, "book.xhtml.zip")
	f, err := os.Create(arcPath)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for _, e := range []struct{ name, content string }{
		{"mimetype", "application/epub+zip"},
		{"styles/book.css", `h1 { color: blue }`},
		{"text/book.xhtml", `<html xmlns="http://www.w3.org/1999/xhtml"><head>
<link rel="stylesheet" href="../styles/book.css"/>
<link rel="stylesheet" href="../styles/book.css"/>
<link rel="stylesheet" href="missing.css"/>
<style>p { color: red }</style>
</head><body><h1>Title</h1><p>text</p></body></html>`},
	} {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	env := testEnv(t, config.EngineConfig{Embedded: true})
	doc, err := env.LoadDocument(arcPath)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	eng, err := env.NewEngine(doc, arcPath)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	got := selectors(eng.Rules())
	if strings.Join(got, ",") != "h1,p" {
		t.Errorf("rules = %v, want [h1 p]", got)
	}

	empty := filepath.Join(dir, "empty.zip")
	zf, err := os.Create(empty)
	if err != nil {
		t.Fatal(err)
	}
	if err := zip.NewWriter(zf).Close(); err != nil {
		t.Fatal(err)
	}
	zf.Close()
	if _, err := env.LoadDocument(empty); err == nil {
		t.Error("expected error for archive without documents")
	}
}

func TestNewEngine_Options(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ua.css":    `p { display: block }`,
		"book.html": `<html><head><style>p { color: red }</style></head><body></body></html>`,
	})
	docPath := filepath.Join(dir, "book.html")

	tests := []struct {
		name   string
		engine config.EngineConfig
		want   int
	}{
		{"nothing", config.EngineConfig{}, 0},
		{"embedded", config.EngineConfig{Embedded: true}, 1},
		{"custom user agent", config.EngineConfig{UserAgent: true, UserAgentPath: filepath.Join(dir, "ua.css")}, 1},
		{"custom user agent and embedded", config.EngineConfig{UserAgent: true, UserAgentPath: filepath.Join(dir, "ua.css"), Embedded: true}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testEnv(t, tt.engine)
			doc, err := env.LoadDocument(docPath)
			if err != nil {
				t.Fatal(err)
			}
			eng, err := env.NewEngine(doc, docPath)
			if err != nil {
				t.Fatalf("NewEngine() error = %v", err)
			}
			if got := len(eng.Rules()); got != tt.want {
				t.Errorf("rules = %d, want %d", got, tt.want)
			}
		})
	}

	env := testEnv(t, config.EngineConfig{UserAgent: true})
	eng, err := env.NewEngine(nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(eng.Rules()) == 0 {
		t.Error("built-in user agent stylesheet was not added")
	}
}

func TestNewEngine_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.css")
	for _, engine := range []config.EngineConfig{
		{Stylesheets: []string{missing}},
		{UserAgent: true, UserAgentPath: missing},
	} {
		if _, err := testEnv(t, engine).NewEngine(nil, ""); err == nil {
			t.Errorf("expected error for %+v", engine)
		}
	}

	if _, err := testEnv(t, config.EngineConfig{}).LoadDocument(missing); err == nil {
		t.Error("expected error for missing document")
	}
}
