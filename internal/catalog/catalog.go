// Package catalog embeds the seed content shipped with the binaries.
package catalog

import (
	"context"
	"embed"
	"io/fs"

	"github.com/jwalitptl/edu-content/internal/loader"
	"github.com/jwalitptl/edu-content/internal/registry"
)

//go:embed content
var content embed.FS

// FS returns the embedded content tree rooted at its top directory.
func FS() fs.FS {
	sub, err := fs.Sub(content, "content")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}

// Load decodes the embedded tree and registers it into reg.
func Load(ctx context.Context, reg *registry.Registry, opts ...loader.Option) (*loader.Catalog, error) {
	return loader.LoadInto(ctx, FS(), reg, opts...)
}
