// Package snapshot loads resolver snapshots: TOML documents exporting the
// upstream resolver's verdicts (traits, impls, per-function bound sets and
// call sites) together with a reference to the source file the spans index
// into. The loader never resolves names itself; it only validates that the
// exporter produced internally consistent facts. Every load error indicates
// a broken exporter, not broken user code, and is therefore a plain error
// rather than a diagnostic.
package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"constcheck/internal/constrait"
	"constcheck/internal/source"
)

// FormatConstraint is the range of snapshot format versions this checker
// understands.
const FormatConstraint = "^1"

// Snapshot is one loaded resolver export, ready for checking.
type Snapshot struct {
	Path   string
	FileID source.FileID
	Traits *constrait.TraitRegistry
	Impls  *constrait.ImplRegistry
	Funcs  []*constrait.Func
}

type spanTOML struct {
	Start uint32 `toml:"start"`
	End   uint32 `toml:"end"`
}

type sourceTOML struct {
	// File points at the source file on disk, relative to the snapshot.
	File string `toml:"file"`
	// Name/Text carry an inline virtual file; used by tests and fixtures.
	Name string `toml:"name"`
	Text string `toml:"text"`
}

type traitTOML struct {
	Name         string   `toml:"name"`
	Path         string   `toml:"path"`
	ConstCapable bool     `toml:"const_capable"`
	Span         spanTOML `toml:"span"`
}

type implTOML struct {
	Type  string   `toml:"type"`
	Trait string   `toml:"trait"`
	Const bool     `toml:"const"`
	Span  spanTOML `toml:"span"`
}

type boundTOML struct {
	Trait    string   `toml:"trait"`
	Modifier string   `toml:"modifier"`
	Span     spanTOML `toml:"span"`
}

type paramTOML struct {
	Name   string      `toml:"name"`
	Bounds []boundTOML `toml:"bound"`
}

type callTOML struct {
	Receiver     string   `toml:"receiver"`
	ReceiverKind string   `toml:"receiver_kind"`
	Trait        string   `toml:"trait"`
	Method       string   `toml:"method"`
	Operator     bool     `toml:"operator"`
	Span         spanTOML `toml:"span"`
}

type funcTOML struct {
	Name   string      `toml:"name"`
	Const  bool        `toml:"const"`
	Span   spanTOML    `toml:"span"`
	Params []paramTOML `toml:"param"`
	Calls  []callTOML  `toml:"call"`
}

type snapshotTOML struct {
	Format string      `toml:"format"`
	Source sourceTOML  `toml:"source"`
	Traits []traitTOML `toml:"trait"`
	Impls  []implTOML  `toml:"impl"`
	Funcs  []funcTOML  `toml:"func"`
}

// Load reads and validates a snapshot file, registering its source file in
// fs so spans resolve to line/column positions.
func Load(fs *source.FileSet, path string) (*Snapshot, error) {
	var raw snapshotTOML
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return build(fs, path, &raw, meta)
}

// Parse decodes a snapshot from in-memory TOML. Paths in [source] resolve
// relative to dir.
func Parse(fs *source.FileSet, dir, name string, data []byte) (*Snapshot, error) {
	var raw snapshotTOML
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	return build(fs, filepath.Join(dir, name), &raw, meta)
}

func build(fs *source.FileSet, path string, raw *snapshotTOML, meta toml.MetaData) (*Snapshot, error) {
	if !meta.IsDefined("format") {
		return nil, fmt.Errorf("%s: missing format version", path)
	}
	if err := checkFormat(raw.Format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	fileID, fileLen, err := loadSource(fs, path, raw.Source)
	if err != nil {
		return nil, err
	}

	traits := make([]constrait.Trait, 0, len(raw.Traits))
	traitNames := make(map[string]bool, len(raw.Traits))
	for i, t := range raw.Traits {
		if t.Name == "" {
			return nil, fmt.Errorf("%s: trait %d: missing name", path, i)
		}
		if traitNames[t.Name] {
			return nil, fmt.Errorf("%s: duplicate trait %q", path, t.Name)
		}
		traitNames[t.Name] = true
		sp, err := makeSpan(fileID, fileLen, t.Span)
		if err != nil {
			return nil, fmt.Errorf("%s: trait %q: %w", path, t.Name, err)
		}
		traits = append(traits, constrait.Trait{
			Name:         t.Name,
			Path:         t.Path,
			ConstCapable: t.ConstCapable,
			Span:         sp,
		})
	}

	impls := make([]constrait.Impl, 0, len(raw.Impls))
	for i, im := range raw.Impls {
		if im.Type == "" || im.Trait == "" {
			return nil, fmt.Errorf("%s: impl %d: missing type or trait", path, i)
		}
		if !traitNames[im.Trait] {
			return nil, fmt.Errorf("%s: impl %d: unknown trait %q", path, i, im.Trait)
		}
		sp, err := makeSpan(fileID, fileLen, im.Span)
		if err != nil {
			return nil, fmt.Errorf("%s: impl %s: %s: %w", path, im.Type, im.Trait, err)
		}
		impls = append(impls, constrait.Impl{
			Type:      im.Type,
			Trait:     im.Trait,
			ConstImpl: im.Const,
			Span:      sp,
		})
	}

	funcs := make([]*constrait.Func, 0, len(raw.Funcs))
	for i, f := range raw.Funcs {
		if f.Name == "" {
			return nil, fmt.Errorf("%s: func %d: missing name", path, i)
		}
		fn, err := buildFunc(path, fileID, fileLen, &f, traitNames)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}

	return &Snapshot{
		Path:   path,
		FileID: fileID,
		Traits: constrait.NewTraitRegistry(traits),
		Impls:  constrait.NewImplRegistry(impls),
		Funcs:  funcs,
	}, nil
}

func buildFunc(path string, fileID source.FileID, fileLen uint32, f *funcTOML, traitNames map[string]bool) (*constrait.Func, error) {
	params := make([]constrait.ParamBounds, 0, len(f.Params))
	paramNames := make(map[string]bool, len(f.Params))
	for _, p := range f.Params {
		if p.Name == "" {
			return nil, fmt.Errorf("%s: func %q: unnamed type parameter", path, f.Name)
		}
		if paramNames[p.Name] {
			return nil, fmt.Errorf("%s: func %q: duplicate type parameter %q", path, f.Name, p.Name)
		}
		paramNames[p.Name] = true

		entries := make([]constrait.BoundEntry, 0, len(p.Bounds))
		for _, b := range p.Bounds {
			if !traitNames[b.Trait] {
				return nil, fmt.Errorf("%s: func %q: bound on %q references unknown trait %q", path, f.Name, p.Name, b.Trait)
			}
			mod, err := parseModifier(b.Modifier)
			if err != nil {
				return nil, fmt.Errorf("%s: func %q: bound on %q: %w", path, f.Name, p.Name, err)
			}
			sp, err := makeSpan(fileID, fileLen, b.Span)
			if err != nil {
				return nil, fmt.Errorf("%s: func %q: bound on %q: %w", path, f.Name, p.Name, err)
			}
			entries = append(entries, constrait.BoundEntry{
				Trait:    b.Trait,
				Modifier: mod,
				Span:     sp,
			})
		}
		params = append(params, constrait.ParamBounds{Name: p.Name, Entries: entries})
	}

	calls := make([]constrait.CallSite, 0, len(f.Calls))
	for i, c := range f.Calls {
		if c.Receiver == "" || c.Trait == "" {
			return nil, fmt.Errorf("%s: func %q: call %d: missing receiver or trait", path, f.Name, i)
		}
		if !traitNames[c.Trait] {
			return nil, fmt.Errorf("%s: func %q: call %d references unknown trait %q", path, f.Name, i, c.Trait)
		}
		isParam, err := parseReceiverKind(c.ReceiverKind)
		if err != nil {
			return nil, fmt.Errorf("%s: func %q: call %d: %w", path, f.Name, i, err)
		}
		if isParam && !paramNames[c.Receiver] {
			return nil, fmt.Errorf("%s: func %q: call %d: receiver %q is not a declared type parameter", path, f.Name, i, c.Receiver)
		}
		sp, err := makeSpan(fileID, fileLen, c.Span)
		if err != nil {
			return nil, fmt.Errorf("%s: func %q: call %d: %w", path, f.Name, i, err)
		}
		calls = append(calls, constrait.CallSite{
			Receiver:          c.Receiver,
			ReceiverParam:     isParam,
			Trait:             c.Trait,
			Method:            c.Method,
			Span:              sp,
			OperatorDesugared: c.Operator,
		})
	}

	fnSpan, err := makeSpan(fileID, fileLen, f.Span)
	if err != nil {
		return nil, fmt.Errorf("%s: func %q: %w", path, f.Name, err)
	}
	return &constrait.Func{
		Name:          f.Name,
		ConstRequired: f.Const,
		Bounds:        constrait.NewBoundSet(params),
		Calls:         calls,
		Span:          fnSpan,
	}, nil
}

func checkFormat(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid format version %q: %w", version, err)
	}
	constraint, err := semver.NewConstraint(FormatConstraint)
	if err != nil {
		return fmt.Errorf("invalid format constraint %q: %w", FormatConstraint, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("unsupported snapshot format %q (supported: %s)", version, FormatConstraint)
	}
	return nil
}

func loadSource(fs *source.FileSet, snapPath string, src sourceTOML) (source.FileID, uint32, error) {
	switch {
	case src.File != "":
		p := src.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(snapPath), p)
		}
		if f, ok := fs.GetByPath(p); ok {
			return f.ID, uint32(len(f.Content)), nil
		}
		id, err := fs.Load(p)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: failed to load source file: %w", snapPath, err)
		}
		return id, uint32(len(fs.Get(id).Content)), nil
	case src.Text != "":
		name := src.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(snapPath), filepath.Ext(snapPath)) + ".rs"
		}
		id := fs.AddVirtual(name, []byte(src.Text))
		return id, uint32(len(src.Text)), nil
	default:
		return 0, 0, fmt.Errorf("%s: missing [source] file or text", snapPath)
	}
}

func makeSpan(fileID source.FileID, fileLen uint32, sp spanTOML) (source.Span, error) {
	if sp.End < sp.Start {
		return source.Span{}, fmt.Errorf("span end %d precedes start %d", sp.End, sp.Start)
	}
	if sp.End > fileLen {
		return source.Span{}, fmt.Errorf("span %d-%d exceeds source length %d", sp.Start, sp.End, fileLen)
	}
	return source.Span{File: fileID, Start: sp.Start, End: sp.End}, nil
}

func parseModifier(s string) (constrait.Modifier, error) {
	switch s {
	case "", "plain":
		return constrait.ModPlain, nil
	case "~const", "const-conditional":
		return constrait.ModConstConditional, nil
	default:
		return 0, fmt.Errorf("unknown bound modifier %q", s)
	}
}

func parseReceiverKind(s string) (bool, error) {
	switch s {
	case "param":
		return true, nil
	case "", "type":
		return false, nil
	default:
		return false, fmt.Errorf("unknown receiver kind %q", s)
	}
}
