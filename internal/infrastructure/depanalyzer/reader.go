// Package depanalyzer implements ports.DescriptorReader: it reads the
// plugin.yml descriptor embedded at a JAR's root without extracting the
// whole archive (§5).
package depanalyzer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	goyaml "github.com/goccy/go-yaml"

	"github.com/morinoparty/mpm/internal/application/ports"
)

const descriptorEntryName = "plugin.yml"

type descriptorWire struct {
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Main       string   `yaml:"main"`
	Depend     []string `yaml:"depend"`
	SoftDepend []string `yaml:"softdepend"`
	LoadBefore []string `yaml:"loadbefore"`
}

// Reader extracts DependencyDescriptors from JAR artifacts.
type Reader struct{}

// NewReader constructs a Reader.
func NewReader() *Reader { return &Reader{} }

// ReadDescriptor opens artifactPath as a ZIP and decodes its plugin.yml.
func (Reader) ReadDescriptor(ctx context.Context, artifactPath string) (ports.DependencyDescriptor, error) {
	r, err := zip.OpenReader(artifactPath)
	if err != nil {
		return ports.DependencyDescriptor{}, err
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.Name != descriptorEntryName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ports.DependencyDescriptor{}, err
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return ports.DependencyDescriptor{}, err
		}

		var wire descriptorWire
		if err := goyaml.Unmarshal(data, &wire); err != nil {
			return ports.DependencyDescriptor{}, err
		}
		return ports.DependencyDescriptor{
			Name:       wire.Name,
			Depend:     wire.Depend,
			SoftDepend: wire.SoftDepend,
			LoadBefore: wire.LoadBefore,
		}, nil
	}

	return ports.DependencyDescriptor{}, fmt.Errorf("%s: no %s entry", artifactPath, descriptorEntryName)
}
