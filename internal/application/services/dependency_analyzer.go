package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/morinoparty/mpm/internal/application/dto"
	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// DependencyAnalyzer reads the dependency edges declared in artifacts
// already present on disk and answers presence-only queries over them
// (§4.J). It never installs or version-resolves.
type DependencyAnalyzer struct {
	pluginDir   ports.PluginDirectory
	descriptors ports.DescriptorReader
}

// NewDependencyAnalyzer constructs a DependencyAnalyzer.
func NewDependencyAnalyzer(pluginDir ports.PluginDirectory, descriptors ports.DescriptorReader) *DependencyAnalyzer {
	return &DependencyAnalyzer{pluginDir: pluginDir, descriptors: descriptors}
}

// descriptorsByName scans every artifact in the plugin directory and
// returns its declared descriptor, keyed by declared name.
func (a *DependencyAnalyzer) descriptorsByName(ctx context.Context) (map[string]ports.DependencyDescriptor, error) {
	artifacts, err := a.pluginDir.ListArtifacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing plugin directory: %w", err)
	}

	byName := make(map[string]ports.DependencyDescriptor, len(artifacts))
	for _, path := range artifacts {
		d, err := a.descriptors.ReadDescriptor(ctx, path)
		if err != nil {
			continue
		}
		byName[d.Name] = d
	}
	return byName, nil
}

// BuildDependencyTree walks name's depend (and, if includeSoft, softDepend)
// edges, marking any edge whose target has no installed artifact.
func (a *DependencyAnalyzer) BuildDependencyTree(ctx context.Context, name string, includeSoft bool) (*dto.DependencyTreeNode, error) {
	byName, err := a.descriptorsByName(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := byName[name]; !ok {
		return nil, mpmerrors.NewDependencyError(mpmerrors.UnknownPlugin, name, "", nil)
	}

	visited := make(map[string]bool)
	return buildTreeNode(name, byName, includeSoft, visited), nil
}

func buildTreeNode(name string, byName map[string]ports.DependencyDescriptor, includeSoft bool, visited map[string]bool) *dto.DependencyTreeNode {
	node := &dto.DependencyTreeNode{Name: name}
	if visited[name] {
		return node
	}
	visited[name] = true

	descriptor, ok := byName[name]
	if !ok {
		node.Missing = true
		return node
	}

	edges := append([]string{}, descriptor.Depend...)
	if includeSoft {
		edges = append(edges, descriptor.SoftDepend...)
	}
	for _, dep := range edges {
		node.Children = append(node.Children, buildTreeNode(dep, byName, includeSoft, visited))
	}
	return node
}

// CheckMissingDependencies reports, per plugin, which required (depend)
// edges have no installed artifact. If name is non-empty only that
// plugin is checked.
func (a *DependencyAnalyzer) CheckMissingDependencies(ctx context.Context, name string) (map[string][]string, error) {
	byName, err := a.descriptorsByName(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(byName))
	if name != "" {
		if _, ok := byName[name]; !ok {
			return nil, mpmerrors.NewDependencyError(mpmerrors.UnknownPlugin, name, "", nil)
		}
		names = []string{name}
	} else {
		for n := range byName {
			names = append(names, n)
		}
		sort.Strings(names)
	}

	result := make(map[string][]string)
	for _, n := range names {
		var missing []string
		for _, dep := range byName[n].Depend {
			if _, ok := byName[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			result[n] = missing
		}
	}
	return result, nil
}

// GetReverseDependencies returns every installed plugin that declares
// name in its depend or softDepend list.
func (a *DependencyAnalyzer) GetReverseDependencies(ctx context.Context, name string) ([]string, error) {
	byName, err := a.descriptorsByName(ctx)
	if err != nil {
		return nil, err
	}

	var result []string
	for n, d := range byName {
		if containsString(d.Depend, name) || containsString(d.SoftDepend, name) {
			result = append(result, n)
		}
	}
	sort.Strings(result)
	return result, nil
}

// GetDependencyInfo returns the raw descriptor for name.
func (a *DependencyAnalyzer) GetDependencyInfo(ctx context.Context, name string) (ports.DependencyDescriptor, error) {
	byName, err := a.descriptorsByName(ctx)
	if err != nil {
		return ports.DependencyDescriptor{}, err
	}
	d, ok := byName[name]
	if !ok {
		return ports.DependencyDescriptor{}, mpmerrors.NewDependencyError(mpmerrors.UnknownPlugin, name, "", nil)
	}
	return d, nil
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
