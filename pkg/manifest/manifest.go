package manifest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/orgtools/orgdelta/pkg/delta"
)

// Xmlns is the namespace of the platform's package manifest format
const Xmlns = "http://soap.sforce.com/2006/04/metadata"

const header = xml.Header

// ErrEmptyManifest is returned by EmitFile in strict mode when the filtered
// entry set is empty.
var ErrEmptyManifest = errors.New("empty manifest")

// Package is a deployable package manifest: member names grouped by type,
// plus the target API version.
type Package struct {
	XMLName xml.Name `xml:"Package"`
	Xmlns   string   `xml:"xmlns,attr"`
	Types   []Types  `xml:"types"`
	Version string   `xml:"version"`
}

// Types lists the members of one metadata type
type Types struct {
	Members []string `xml:"members"`
	Name    string   `xml:"name"`
}

// Result reports what EmitFile did
type Result string

const (
	// ResultWritten means a manifest with at least one member was written
	ResultWritten Result = "written"
	// ResultNothingToDeploy means the filtered set was empty; in
	// non-strict mode a valid zero-member manifest is still written and
	// the caller decides whether that is an error.
	ResultNothingToDeploy Result = "nothing-to-deploy"
)

// BuildDeploy builds the deploy manifest from Added and Changed entries.
// Entry order is preserved, so a sorted delta set yields a deterministic
// manifest.
func BuildDeploy(entries []delta.Entry, apiVersion string) *Package {
	return build(entries, apiVersion, delta.StatusAdded, delta.StatusChanged)
}

// BuildDestructive builds the destructive-changes manifest from Removed
// entries.
func BuildDestructive(entries []delta.Entry, apiVersion string) *Package {
	return build(entries, apiVersion, delta.StatusRemoved)
}

func build(entries []delta.Entry, apiVersion string, statuses ...delta.Status) *Package {
	wanted := make(map[delta.Status]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	pkg := &Package{
		Xmlns:   Xmlns,
		Version: apiVersion,
	}

	seen := make(map[string]map[string]bool)
	for _, entry := range entries {
		if !wanted[entry.Status] {
			continue
		}
		if seen[entry.Type] == nil {
			seen[entry.Type] = make(map[string]bool)
			pkg.Types = append(pkg.Types, Types{Name: entry.Type})
		}
		if seen[entry.Type][entry.FullName] {
			continue
		}
		seen[entry.Type][entry.FullName] = true

		for i := range pkg.Types {
			if pkg.Types[i].Name == entry.Type {
				pkg.Types[i].Members = append(pkg.Types[i].Members, entry.FullName)
				break
			}
		}
	}

	return pkg
}

// IsEmpty reports whether the manifest has no members
func (p *Package) IsEmpty() bool {
	for _, t := range p.Types {
		if len(t.Members) > 0 {
			return false
		}
	}
	return true
}

// MemberSet returns all members as a type -> name lookup
func (p *Package) MemberSet() map[string]map[string]bool {
	set := make(map[string]map[string]bool, len(p.Types))
	for _, t := range p.Types {
		members := make(map[string]bool, len(t.Members))
		for _, m := range t.Members {
			members[m] = true
		}
		set[t.Name] = members
	}
	return set
}

// Write renders the manifest. Output is a pure function of the package
// value: no timestamps, no map iteration, so identical inputs produce
// byte-identical documents.
func (p *Package) Write(w io.Writer) error {
	data, err := xml.MarshalIndent(p, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// EmitFile writes the manifest to path. In strict mode an empty manifest is
// an error and nothing is written; otherwise an empty but valid manifest is
// written and ResultNothingToDeploy returned.
func EmitFile(pkg *Package, path string, strict bool) (Result, error) {
	if pkg.IsEmpty() {
		if strict {
			return "", fmt.Errorf("%w: %s", ErrEmptyManifest, path)
		}
		if err := writeFile(pkg, path); err != nil {
			return "", err
		}
		return ResultNothingToDeploy, nil
	}

	if err := writeFile(pkg, path); err != nil {
		return "", err
	}
	return ResultWritten, nil
}

func writeFile(pkg *Package, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest file: %w", err)
	}

	if err := pkg.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Parse reads a package manifest
func Parse(r io.Reader) (*Package, error) {
	var pkg Package
	if err := xml.NewDecoder(r).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &pkg, nil
}

// ParseFile reads a package manifest from path
func ParseFile(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}
