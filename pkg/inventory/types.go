package inventory

import (
	"errors"
	"fmt"
)

// Key identifies a component within one inventory: metadata type plus full
// name. For foldered types (reports, dashboards, email templates) the full
// name is folder-qualified, e.g. "unfiled$public/Quarterly", matching how
// manifest members address them.
type Key struct {
	Type     string
	FullName string
}

func (k Key) String() string {
	return k.Type + "/" + k.FullName
}

// Component is one discovered metadata component
type Component struct {
	Type        string
	FullName    string
	FilePath    string // primary file, absolute
	SidecarPath string // companion -meta.xml file, empty if none
	ContentHash string // sha256 hex over primary then sidecar bytes
	Folder      []string
}

// Key returns the component's inventory key
func (c Component) Key() Key {
	return Key{Type: c.Type, FullName: c.FullName}
}

// Inventory maps component keys to components for one retrieval tree
type Inventory map[Key]Component

// Warning records a per-file problem that did not abort the build
type Warning struct {
	Path   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// ErrDuplicateComponent signals two files resolving to the same key with
// differing content, which means the retrieval output is malformed.
var ErrDuplicateComponent = errors.New("duplicate component")

// Error is an inventory build failure carrying the offending file and key
type Error struct {
	Path string
	Key  Key
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Path, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
