package state

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"pstyle/archive"
	"pstyle/css"
	"pstyle/dom"
	"pstyle/style"
)

// maxImportDepth limits @import chains.
const maxImportDepth = 8

var charsetRule = regexp.MustCompile(`^@charset\s+"([^"]+)"\s*;`)

// decodeStylesheet converts stylesheet bytes to UTF-8. BOM wins, then
// explicitly requested encoding, then @charset rule.
func decodeStylesheet(data []byte, forced encoding.Encoding) ([]byte, error) {
	enc := forced
	if enc == nil {
		enc = unicode.UTF8
		if m := charsetRule.FindSubmatch(data); m != nil {
			if e, _ := charset.Lookup(string(m[1])); e != nil {
				enc = e
			}
		}
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(enc.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("unable to decode stylesheet: %w", err)
	}
	return out, nil
}

// ReadStylesheet reads stylesheet file, adds it to debug report and converts
// it to UTF-8.
func (e *LocalEnv) ReadStylesheet(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	if err := e.Rpt.StoreCopy(filepath.ToSlash(filepath.Join("stylesheets", filepath.Base(path))), path); err != nil {
		e.Log.Debug("Unable to add stylesheet to report", zap.String("path", path), zap.Error(err))
	}
	return decodeStylesheet(data, e.Charset)
}

// ParseStylesheet parses CSS text logging every dropped construct.
func (e *LocalEnv) ParseStylesheet(p *css.Parser, data []byte, source string) *css.Stylesheet {
	sheet := p.Parse(data, source)
	for _, err := range multierr.Errors(sheet.Err()) {
		e.Log.Warn("Stylesheet problem", zap.String("source", source), zap.Error(err))
	}
	return sheet
}

func isDocument(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".fb2", ".html", ".htm", ".xhtml", ".xht", ".xml":
		return true
	}
	return false
}

// LoadDocument reads document from disk, format is guessed by file name.
// For zip archives the first document inside is used.
func (e *LocalEnv) LoadDocument(name string) (*dom.Node, error) {
	e.Rpt.Store(filepath.ToSlash(filepath.Join("input", filepath.Base(name))), name)

	if archive.IsArchive(name) {
		entry, data, err := archive.First(name, isDocument)
		if err != nil {
			return nil, fmt.Errorf("unable to find document in archive: %w", err)
		}
		e.Log.Debug("Loading document from archive", zap.String("archive", name), zap.String("entry", entry))
		doc, err := dom.Load(bytes.NewReader(data), dom.FormatOf(entry), e.Log)
		if err != nil {
			return nil, fmt.Errorf("unable to load document %s from %s: %w", entry, name, err)
		}
		if e.archived == nil {
			e.archived = make(map[string]string)
		}
		e.archived[name] = entry
		return doc, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unable to open document: %w", err)
	}
	defer f.Close()

	doc, err := dom.Load(f, dom.FormatOf(name), e.Log)
	if err != nil {
		return nil, fmt.Errorf("unable to load document %s: %w", name, err)
	}
	return doc, nil
}

// addArchived adds stylesheet linked from a document inside archive. Imports
// of such stylesheets are not followed.
func (e *LocalEnv) addArchived(eng *style.Engine, archivePath, entry, href string, seen map[string]bool) error {
	name := path.Join(path.Dir(entry), href)
	key := archivePath + ":" + name
	if seen[key] {
		return nil
	}
	seen[key] = true

	data, err := archive.ReadFile(archivePath, name)
	if err != nil {
		return err
	}
	e.Rpt.StoreData(path.Join("stylesheets", filepath.Base(archivePath), name), data)
	if data, err = decodeStylesheet(data, e.Charset); err != nil {
		return err
	}
	sheet := e.ParseStylesheet(eng.Parser(), data, key)
	if imports := sheet.Imports(); len(imports) > 0 {
		e.Log.Warn("Imports of archived stylesheets are ignored", zap.String("stylesheet", name), zap.Strings("imports", imports))
	}
	eng.AddStylesheet(style.OriginAuthor, sheet)
	return nil
}

// addFile adds stylesheet file with everything it imports for the configured
// medium. Imported sheets precede the importing one.
func (e *LocalEnv) addFile(eng *style.Engine, origin style.Origin, path string, depth int, seen map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if seen[abs] {
		e.Log.Debug("Stylesheet already loaded", zap.String("path", path))
		return nil
	}
	seen[abs] = true

	data, err := e.ReadStylesheet(path)
	if err != nil {
		return err
	}
	sheet := e.ParseStylesheet(eng.Parser(), data, path)
	e.addImports(eng, origin, sheet, filepath.Dir(path), depth, seen)
	eng.AddStylesheet(origin, sheet)
	return nil
}

func (e *LocalEnv) addImports(eng *style.Engine, origin style.Origin, sheet *css.Stylesheet, dir string, depth int, seen map[string]bool) {
	medium := e.Cfg.Engine.Medium()
	for _, item := range sheet.Items {
		imp := item.Import
		if imp == nil {
			continue
		}
		switch {
		case !imp.Media.Matches(medium):
			e.Log.Debug("Skipping @import for other media", zap.String("url", imp.URL), zap.Stringer("media", imp.Media))
			continue
		case depth >= maxImportDepth:
			e.Log.Warn("Too many nested imports, skipping", zap.String("url", imp.URL))
			continue
		case strings.Contains(imp.URL, "://"):
			e.Log.Warn("Remote stylesheets are not supported, skipping", zap.String("url", imp.URL))
			continue
		}
		if err := e.addFile(eng, origin, filepath.Join(dir, filepath.FromSlash(imp.URL)), depth+1, seen); err != nil {
			e.Log.Warn("Unable to import stylesheet", zap.String("url", imp.URL), zap.Error(err))
		}
	}
}

// NewEngine builds styling engine for the document according to
// configuration: user agent stylesheet, configured stylesheets, then
// stylesheets the document links to and embeds. docPath is used to resolve
// relative references and may be empty.
func (e *LocalEnv) NewEngine(doc *dom.Node, docPath string) (*style.Engine, error) {
	conf := &e.Cfg.Engine
	eng := style.NewEngine(e.Log, nil, conf.Medium())
	seen := make(map[string]bool)

	if conf.UserAgent {
		if conf.UserAgentPath != "" {
			if err := e.addFile(eng, style.OriginUserAgent, conf.UserAgentPath, 0, seen); err != nil {
				return nil, fmt.Errorf("unable to load user agent stylesheet: %w", err)
			}
		} else {
			eng.AddStylesheet(style.OriginUserAgent, e.ParseStylesheet(eng.Parser(), e.DefaultStyle, "user-agent"))
		}
	}

	for _, path := range conf.Stylesheets {
		if err := e.addFile(eng, style.OriginAuthor, path, 0, seen); err != nil {
			return nil, err
		}
	}

	if doc == nil || !conf.Embedded {
		return eng, nil
	}

	dir := filepath.Dir(docPath)
	entry, archived := e.archived[docPath]
	for _, href := range dom.LinkedStylesheets(doc) {
		if strings.Contains(href, "://") {
			e.Log.Warn("Remote stylesheets are not supported, skipping", zap.String("href", href))
			continue
		}
		if archived {
			if err := e.addArchived(eng, docPath, entry, href, seen); err != nil {
				e.Log.Warn("Unable to load linked stylesheet", zap.String("href", href), zap.Error(err))
			}
			continue
		}
		if err := e.addFile(eng, style.OriginAuthor, filepath.Join(dir, filepath.FromSlash(href)), 0, seen); err != nil {
			e.Log.Warn("Unable to load linked stylesheet", zap.String("href", href), zap.Error(err))
		}
	}
	for i, text := range dom.Stylesheets(doc) {
		source := fmt.Sprintf("%s#style%d", filepath.Base(docPath), i+1)
		sheet := e.ParseStylesheet(eng.Parser(), []byte(text), source)
		e.addImports(eng, style.OriginAuthor, sheet, dir, 0, seen)
		eng.AddStylesheet(style.OriginAuthor, sheet)
	}
	return eng, nil
}
