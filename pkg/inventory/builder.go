package inventory

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/orgtools/orgdelta/internal/checksum"
	"github.com/orgtools/orgdelta/internal/walker"
)

const sidecarSuffix = "-meta.xml"

// bundleFolders are type folders whose components span multiple files under
// a single bundle directory (the bundle, not each file, is the component).
var bundleFolders = map[string]bool{
	"aura": true,
	"lwc":  true,
}

// Options configures an inventory build
type Options struct {
	// TypeMap maps top-level folder names to metadata type names
	TypeMap map[string]string
	// IgnorePatterns are doublestar globs matched against relative paths
	IgnorePatterns []string
}

// Build walks a retrieval output tree and produces the component inventory.
// Per-file problems (unmapped folders, stray top-level files, identical
// duplicates) are recorded as warnings and skipped; only a malformed tree
// (same key, differing content) fails the build. The walk is read-only.
func Build(root string, opts Options) (Inventory, []Warning, error) {
	w, err := walker.New(root, opts.IgnorePatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("inventory root: %w", err)
	}

	files, err := w.Walk()
	if err != nil {
		return nil, nil, fmt.Errorf("walk inventory root: %w", err)
	}

	byRelPath := make(map[string]walker.FileInfo, len(files))
	for _, f := range files {
		byRelPath[f.RelPath] = f
	}

	inv := make(Inventory)
	var warnings []Warning

	// Bundle components are assembled from every file below the bundle
	// directory, so collect their members first.
	bundles := make(map[Key][]string) // key -> relative paths, walk order (sorted)
	bundleDirs := make(map[Key]string)

	for _, f := range files {
		segs := strings.Split(f.RelPath, "/")
		if len(segs) < 2 {
			warnings = append(warnings, Warning{
				Path:   f.RelPath,
				Reason: "not inside a metadata type folder, skipped",
			})
			continue
		}

		folder := segs[0]
		typeName, ok := opts.TypeMap[folder]
		if !ok {
			warnings = append(warnings, Warning{
				Path:   f.RelPath,
				Reason: fmt.Sprintf("no metadata type mapped for folder %q, skipped", folder),
			})
			continue
		}

		if bundleFolders[folder] {
			if len(segs) < 3 {
				warnings = append(warnings, Warning{
					Path:   f.RelPath,
					Reason: "bundle file outside a bundle directory, skipped",
				})
				continue
			}
			key := Key{Type: typeName, FullName: segs[1]}
			bundles[key] = append(bundles[key], f.Path)
			absRoot := strings.TrimSuffix(f.Path, filepath.FromSlash(f.RelPath))
			bundleDirs[key] = filepath.Join(absRoot, segs[0], segs[1])
			continue
		}

		base := segs[len(segs)-1]
		if strings.HasSuffix(base, sidecarSuffix) {
			// A sidecar whose primary exists is folded into the primary's
			// hash below; a standalone -meta.xml is itself the component.
			primaryRel := strings.TrimSuffix(f.RelPath, sidecarSuffix)
			if _, exists := byRelPath[primaryRel]; exists {
				continue
			}
		}

		comp, err := buildComponent(typeName, segs, f, byRelPath)
		if err != nil {
			return nil, warnings, err
		}

		if existing, exists := inv[comp.Key()]; exists {
			if existing.ContentHash == comp.ContentHash {
				warnings = append(warnings, Warning{
					Path:   f.RelPath,
					Reason: fmt.Sprintf("duplicate of %s with identical content, skipped", comp.Key()),
				})
				continue
			}
			return nil, warnings, &Error{
				Path: f.RelPath,
				Key:  comp.Key(),
				Err:  ErrDuplicateComponent,
			}
		}

		inv[comp.Key()] = comp
	}

	for key, members := range bundles {
		// walker output is sorted, so members are already in a fixed order
		hash, err := checksum.FilesSHA256(members...)
		if err != nil {
			return nil, warnings, &Error{Path: bundleDirs[key], Key: key, Err: err}
		}
		inv[key] = Component{
			Type:        key.Type,
			FullName:    key.FullName,
			FilePath:    bundleDirs[key],
			ContentHash: hash,
		}
	}

	return inv, warnings, nil
}

func buildComponent(typeName string, segs []string, f walker.FileInfo, byRelPath map[string]walker.FileInfo) (Component, error) {
	base := segs[len(segs)-1]
	name := strings.TrimSuffix(base, sidecarSuffix)
	name = strings.TrimSuffix(name, path.Ext(name))

	folderPath := segs[1 : len(segs)-1]
	fullName := name
	if len(folderPath) > 0 {
		fullName = strings.Join(folderPath, "/") + "/" + name
	}

	var sidecarAbs string
	if !strings.HasSuffix(base, sidecarSuffix) {
		if sc, exists := byRelPath[f.RelPath+sidecarSuffix]; exists {
			sidecarAbs = sc.Path
		}
	}

	key := Key{Type: typeName, FullName: fullName}
	hash, err := checksum.ComponentSHA256(f.Path, sidecarAbs)
	if err != nil {
		return Component{}, &Error{Path: f.RelPath, Key: key, Err: err}
	}

	return Component{
		Type:        typeName,
		FullName:    fullName,
		FilePath:    f.Path,
		SidecarPath: sidecarAbs,
		ContentHash: hash,
		Folder:      folderPath,
	}, nil
}

// Tree is the result of one inventory build in a BuildPair call
type Tree struct {
	Inventory Inventory
	Warnings  []Warning
	Err       error
}

// BuildPair builds the source and destination inventories concurrently.
// The two walks are independent and each writes only its own Tree, so no
// locking is needed; both are fully materialized before return.
func BuildPair(sourceRoot, destRoot string, opts Options) (source, dest Tree) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		source.Inventory, source.Warnings, source.Err = Build(sourceRoot, opts)
	}()
	go func() {
		defer wg.Done()
		dest.Inventory, dest.Warnings, dest.Err = Build(destRoot, opts)
	}()

	wg.Wait()
	return source, dest
}
