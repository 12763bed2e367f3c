// Package backup implements ports.BackupStore: a ZIP archiver/restorer for
// the plugin directory with a zip-slip guard and a YAML index catalogue
// (§4.H).
package backup

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// excluded reports whether relPath (slash-separated, relative to the plugin
// directory root) must be skipped when archiving: the configured local/
// subtree, or the tool's own artifact file.
func excluded(relPath, localSubtree, ownArtifact string) bool {
	if relPath == localSubtree || strings.HasPrefix(relPath, localSubtree+"/") {
		return true
	}
	return relPath == ownArtifact
}

// createArchive walks pluginDir and writes every non-excluded entry into a
// new ZIP at destPath. It returns the archive size and the set of top-level
// relative paths actually written, sorted ascending.
func createArchive(pluginDir, destPath, localSubtree, ownArtifact string) (int64, []string, error) {
	out, err := os.Create(destPath)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = out.Close() }()

	zw := zip.NewWriter(out)

	var topLevel []string
	seen := map[string]bool{}

	walkErr := filepath.WalkDir(pluginDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == pluginDir {
			return nil
		}
		rel, err := filepath.Rel(pluginDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if excluded(rel, localSubtree, ownArtifact) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		top := rel
		if i := strings.Index(rel, "/"); i >= 0 {
			top = rel[:i]
		}
		if !seen[top] {
			seen[top] = true
			topLevel = append(topLevel, top)
		}

		if d.IsDir() {
			return nil
		}
		return copyIntoZip(zw, path, rel)
	})
	if walkErr != nil {
		_ = zw.Close()
		return 0, nil, walkErr
	}
	if err := zw.Close(); err != nil {
		return 0, nil, err
	}

	info, err := out.Stat()
	if err != nil {
		return 0, nil, err
	}
	sort.Strings(topLevel)
	return info.Size(), topLevel, nil
}

func copyIntoZip(zw *zip.Writer, path, rel string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w, err := zw.Create(rel)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// extractArchive opens archivePath and extracts every entry into pluginDir,
// guarding against zip-slip: every entry's target path is validated to
// resolve within pluginDir BEFORE any file is written. A single offending
// entry aborts the extraction before any entry is written; the plugin
// directory has already been cleaned by Store.Restore at that point.
func extractArchive(archivePath, pluginDir string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	cleanRoot := filepath.Clean(pluginDir)

	targets := make([]string, len(r.File))
	for i, f := range r.File {
		target := filepath.Join(cleanRoot, f.Name)
		if target != cleanRoot && !strings.HasPrefix(target, cleanRoot+string(filepath.Separator)) {
			return nil, mpmerrors.NewBackupError(mpmerrors.BackupZipSlipDetected, "", "entry escapes plugin directory: "+f.Name, nil)
		}
		targets[i] = target
	}

	var topLevel []string
	seen := map[string]bool{}

	for i, f := range r.File {
		target := targets[i]
		rel := filepath.ToSlash(f.Name)
		top := rel
		if j := strings.Index(rel, "/"); j >= 0 {
			top = rel[:j]
		}
		if !seen[top] {
			seen[top] = true
			topLevel = append(topLevel, top)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		if err := extractFile(f, target); err != nil {
			return nil, err
		}
	}

	sort.Strings(topLevel)
	return topLevel, nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, rc)
	return err
}

// cleanPluginDir removes every entry directly under pluginDir except the
// configured local/ subtree, ahead of a restore.
func cleanPluginDir(pluginDir, localSubtree string) error {
	entries, err := os.ReadDir(pluginDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.Name() == localSubtree {
			continue
		}
		if err := os.RemoveAll(filepath.Join(pluginDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// descriptorNames reads each top-level *.jar entry's declared plugin name
// via descriptors, skipping unreadable artifacts silently (mirrors the
// dependency analyzer's tolerance for non-plugin files in the directory).
func descriptorNames(ctx context.Context, descriptors ports.DescriptorReader, pluginDir string, topLevel []string) []string {
	var names []string
	for _, entry := range topLevel {
		if !strings.HasSuffix(strings.ToLower(entry), ".jar") {
			continue
		}
		desc, err := descriptors.ReadDescriptor(ctx, filepath.Join(pluginDir, entry))
		if err != nil {
			continue
		}
		names = append(names, desc.Name)
	}
	sort.Strings(names)
	return names
}
