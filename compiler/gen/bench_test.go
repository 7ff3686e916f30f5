package gen

import (
	"testing"

	"github.com/tabledsl/ddbgen/compiler/load"
)

func BenchmarkValidate(b *testing.B) {
	doc, _ := load.Parse([]byte(baseDoc))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Validate(doc)
	}
}

func BenchmarkResolve(b *testing.B) {
	doc, _ := load.Parse([]byte(baseDoc))
	g, err := NewGraph(doc)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Resolve(g); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenerate(b *testing.B) {
	doc, _ := load.Parse([]byte(baseDoc))
	opts := &Options{Language: "stub"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Generate(doc, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkManifestCache(b *testing.B) {
	doc, _ := load.Parse([]byte(baseDoc))
	m, err := Generate(doc, &Options{Language: "stub"})
	if err != nil {
		b.Fatal(err)
	}
	cache := NewManifestCache()
	key := CacheKey([]byte(baseDoc), nil, "stub", "")
	if err := cache.Put(key, m); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, ok := cache.Get(key); !ok {
			b.Fatal("cache miss")
		}
	}
}
