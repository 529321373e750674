// Package classpath locates class files on disk and serves their metadata as
// a jvm.TypeProvider, so the registry works against directories and jars the
// same way it works against a live VM.
package classpath

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/jbridge/classfile"
	"github.com/dhamidi/jbridge/jvm"
)

var log = commonlog.GetLogger("jbridge.classpath")

// Path is an ordered list of classpath entries. Entries earlier in the list
// shadow later ones, matching JVM classpath semantics. Entries can be added
// while the path is in use.
type Path struct {
	mu      sync.Mutex
	entries []entry
}

type entry interface {
	// find returns the class bytes for an internal name like
	// "java/util/Map", or ok=false if this entry does not hold it.
	find(internalName string) (data []byte, ok bool, err error)
	classNames() []string
	close() error
}

func New(paths ...string) (*Path, error) {
	p := &Path{}
	for _, path := range paths {
		if err := p.Add(path); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

// Add appends a directory or a jar/zip archive to the path.
func (p *Path) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("classpath entry %s: %w", path, err)
	}

	var e entry
	if info.IsDir() {
		e = &dirEntry{root: path}
	} else {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".jar" && ext != ".zip" {
			return fmt.Errorf("classpath entry %s: not a directory or jar", path)
		}
		je, err := openJar(path)
		if err != nil {
			return err
		}
		e = je
	}

	p.mu.Lock()
	p.entries = append(p.entries, e)
	p.mu.Unlock()
	log.Debugf("added classpath entry %s", path)
	return nil
}

// Find returns the raw class bytes for a source name ("java.util.Map").
// Nested classes use their binary name ("com.example.Outer$Inner"). A class
// on no entry fails with *jvm.NotFoundError.
func (p *Path) Find(className string) ([]byte, error) {
	internal := classfile.SourceToInternalName(className)

	p.mu.Lock()
	entries := make([]entry, len(p.entries))
	copy(entries, p.entries)
	p.mu.Unlock()

	for _, e := range entries {
		data, ok, err := e.find(internal)
		if err != nil {
			return nil, err
		}
		if ok {
			return data, nil
		}
	}
	return nil, &jvm.NotFoundError{Class: className}
}

// Classes lists every class on the path by source name, sorted, with
// duplicates from shadowed entries removed.
func (p *Path) Classes() []string {
	p.mu.Lock()
	entries := make([]entry, len(p.entries))
	copy(entries, p.entries)
	p.mu.Unlock()

	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		for _, internal := range e.classNames() {
			name := classfile.InternalToSourceName(internal)
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Package lists the classes directly inside a package and the names of its
// immediate subpackages. An empty name addresses the default package.
func (p *Path) Package(name string) (classes, subpackages []string) {
	prefix := ""
	if name != "" {
		prefix = name + "."
	}

	subSeen := make(map[string]bool)
	for _, class := range p.Classes() {
		if !strings.HasPrefix(class, prefix) {
			continue
		}
		rest := class[len(prefix):]
		if dot := strings.IndexByte(rest, '.'); dot >= 0 {
			sub := rest[:dot]
			if !subSeen[sub] {
				subSeen[sub] = true
				subpackages = append(subpackages, sub)
			}
		} else {
			classes = append(classes, class)
		}
	}
	sort.Strings(subpackages)
	return classes, subpackages
}

// Close releases open archives. The path is unusable afterward.
func (p *Path) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, e := range p.entries {
		if err := e.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.entries = nil
	return firstErr
}

type dirEntry struct {
	root string
}

func (d *dirEntry) find(internalName string) ([]byte, bool, error) {
	path := filepath.Join(d.root, filepath.FromSlash(internalName)+".class")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (d *dirEntry) classNames() []string {
	var names []string
	filepath.Walk(d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".class") {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return nil
		}
		internal := filepath.ToSlash(strings.TrimSuffix(rel, ".class"))
		names = append(names, internal)
		return nil
	})
	return names
}

func (d *dirEntry) close() error { return nil }

type jarEntry struct {
	path  string
	rc    *zip.ReadCloser
	files map[string]*zip.File
}

func openJar(path string) (*jarEntry, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("classpath entry %s: %w", path, err)
	}
	files := make(map[string]*zip.File)
	for _, f := range rc.File {
		if strings.HasSuffix(f.Name, ".class") {
			files[strings.TrimSuffix(f.Name, ".class")] = f
		}
	}
	return &jarEntry{path: path, rc: rc, files: files}, nil
}

func (j *jarEntry) find(internalName string) ([]byte, bool, error) {
	f, ok := j.files[internalName]
	if !ok {
		return nil, false, nil
	}
	r, err := f.Open()
	if err != nil {
		return nil, false, fmt.Errorf("reading %s from %s: %w", f.Name, j.path, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s from %s: %w", f.Name, j.path, err)
	}
	return data, true, nil
}

func (j *jarEntry) classNames() []string {
	names := make([]string, 0, len(j.files))
	for internal := range j.files {
		names = append(names, internal)
	}
	return names
}

func (j *jarEntry) close() error { return j.rc.Close() }
