package msgcat

import (
    "embed"
    "errors"
    "fmt"
    "io/fs"
    "path/filepath"
    "sort"
    "strings"
    "sync"
    "text/template"

    "github.com/spf13/afero"
    yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

const defaultFile = "messages.en.yaml"

// Catalog holds spoken-notice templates keyed by flattened dot paths ("voice.move").
// Templates are parsed once; executing with a missing key is an error.
type Catalog struct {
    mu    sync.RWMutex
    data  map[string]string
    cache map[string]*template.Template
}

// New loads the embedded English messages and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
    return NewFromFs(afero.NewOsFs(), overrideDir)
}

// NewFromFs is New with overrides read from fsys.
func NewFromFs(fsys afero.Fs, overrideDir string) (*Catalog, error) {
    c := &Catalog{data: make(map[string]string), cache: make(map[string]*template.Template)}

    raw, err := fs.ReadFile(defaultFiles, defaultFile)
    if err != nil {
        return nil, fmt.Errorf("read embedded messages: %w", err)
    }
    if err := c.applyYAML(raw); err != nil {
        return nil, fmt.Errorf("parse embedded messages: %w", err)
    }
    if strings.TrimSpace(overrideDir) != "" {
        if err := c.applyDir(fsys, overrideDir); err != nil {
            return nil, err
        }
    }
    return c, nil
}

func (c *Catalog) applyDir(fsys afero.Fs, dir string) error {
    entries, err := afero.ReadDir(fsys, dir)
    if err != nil {
        return fmt.Errorf("read template dir: %w", err)
    }
    files := make([]string, 0, len(entries))
    for _, e := range entries {
        if e.IsDir() { continue }
        ext := strings.ToLower(filepath.Ext(e.Name()))
        if ext == ".yaml" || ext == ".yml" { files = append(files, e.Name()) }
    }
    // deterministic order
    sort.Strings(files)
    seen := make(map[string]string) // key -> filename
    for _, name := range files {
        b, err := afero.ReadFile(fsys, filepath.Join(dir, name))
        if err != nil { return fmt.Errorf("read %s: %w", name, err) }
        flat, err := parseYAMLToFlat(b)
        if err != nil { return fmt.Errorf("parse %s: %w", name, err) }
        for k := range flat {
            if prev, ok := seen[k]; ok {
                return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
            }
            seen[k] = name
        }
        c.merge(flat)
    }
    return nil
}

func (c *Catalog) applyYAML(b []byte) error {
    flat, err := parseYAMLToFlat(b)
    if err != nil { return err }
    c.merge(flat)
    return nil
}

func (c *Catalog) merge(flat map[string]string) {
    c.mu.Lock()
    defer c.mu.Unlock()
    for k, v := range flat {
        c.data[k] = v
        delete(c.cache, k)
    }
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
    var m map[string]any
    if err := yaml.Unmarshal(b, &m); err != nil {
        return nil, err
    }
    flat := make(map[string]string)
    if err := flattenStrings(m, "", flat); err != nil {
        return nil, err
    }
    return flat, nil
}

func flattenStrings(src any, prefix string, out map[string]string) error {
    switch v := src.(type) {
    case map[string]any:
        for k, vv := range v {
            key := k
            if prefix != "" { key = prefix + "." + k }
            if err := flattenStrings(vv, key, out); err != nil { return err }
        }
        return nil
    case string:
        if prefix == "" { return errors.New("string value without key prefix") }
        out[prefix] = v
        return nil
    case nil:
        return nil
    default:
        // string leaves only
        return fmt.Errorf("unsupported value at %s: %T", prefix, v)
    }
}

// Has reports whether key exists.
func (c *Catalog) Has(key string) bool {
    c.mu.RLock()
    defer c.mu.RUnlock()
    _, ok := c.data[strings.TrimSpace(key)]
    return ok
}

// Render executes a template by key with the provided data.
// Missing keys cause errors; caller should provide safe fallback.
func (c *Catalog) Render(key string, data any) (string, error) {
    key = strings.TrimSpace(key)
    t, err := c.template(key)
    if err != nil { return "", err }
    var b strings.Builder
    if err := t.Execute(&b, data); err != nil { return "", err }
    return strings.TrimSpace(b.String()), nil
}

func (c *Catalog) template(key string) (*template.Template, error) {
    c.mu.RLock()
    t, cached := c.cache[key]
    tpl, ok := c.data[key]
    c.mu.RUnlock()
    if cached { return t, nil }
    if !ok || strings.TrimSpace(tpl) == "" {
        return nil, fmt.Errorf("template not found: %s", key)
    }
    t, err := template.New(key).Option("missingkey=error").Parse(tpl)
    if err != nil { return nil, fmt.Errorf("parse template %s: %w", key, err) }
    c.mu.Lock()
    c.cache[key] = t
    c.mu.Unlock()
    return t, nil
}
