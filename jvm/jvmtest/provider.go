package jvmtest

import (
	"sync"

	"github.com/dhamidi/jbridge/jvm"
)

// Provider is a jvm.TypeProvider backed by a hand-built class table.
type Provider struct {
	mu      sync.Mutex
	classes map[string]*jvm.ClassInfo

	// Lookups counts ClassInfo calls per class name, so tests can assert
	// that the registry memoizes.
	Lookups map[string]int
}

func NewProvider(classes ...*jvm.ClassInfo) *Provider {
	p := &Provider{
		classes: make(map[string]*jvm.ClassInfo),
		Lookups: make(map[string]int),
	}
	for _, c := range classes {
		p.classes[c.Name] = c
	}
	return p
}

func (p *Provider) Add(info *jvm.ClassInfo) {
	p.mu.Lock()
	p.classes[info.Name] = info
	p.mu.Unlock()
}

func (p *Provider) ClassInfo(name string) (*jvm.ClassInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Lookups[name]++
	if info, ok := p.classes[name]; ok {
		return info, nil
	}
	return nil, &jvm.NotFoundError{Class: name}
}

// Object returns a ClassInfo for java.lang.Object so providers built by
// tests resolve the root type explicitly instead of through the registry's
// fallback stub.
func Object() *jvm.ClassInfo {
	return &jvm.ClassInfo{Name: "java.lang.Object", Kind: jvm.KindClass, Mods: jvm.ModPublic}
}

// String returns a minimal ClassInfo for java.lang.String.
func String() *jvm.ClassInfo {
	return &jvm.ClassInfo{
		Name:      "java.lang.String",
		Kind:      jvm.KindClass,
		Mods:      jvm.ModPublic | jvm.ModFinal,
		SuperName: "java.lang.Object",
	}
}
