package delta

import (
	"fmt"
	"sort"
	"strings"

	"github.com/orgtools/orgdelta/pkg/inventory"
)

// Status classifies one component relative to the destination org
type Status string

const (
	// StatusAdded means the component exists only in the source
	StatusAdded Status = "Added"
	// StatusChanged means both sides have it with differing content
	StatusChanged Status = "Changed"
	// StatusRemoved means the component exists only in the destination
	StatusRemoved Status = "Removed"
	// StatusUnchanged means both sides have identical content
	StatusUnchanged Status = "Unchanged"
)

// Entry is one row of a computed difference
type Entry struct {
	Type       string
	FullName   string
	Status     Status
	SourceHash string // empty when absent from the source
	DestHash   string // empty when absent from the destination
}

// Options configures classification
type Options struct {
	// ExemptTypes are always classified Unchanged regardless of hashes,
	// to keep volatile generated metadata out of delta packages.
	ExemptTypes map[string]bool
}

// Summary holds per-status counts of a classified set
type Summary struct {
	Added     int
	Changed   int
	Removed   int
	Unchanged int
}

// Classify compares two inventories and produces one entry per key in their
// union, sorted by type then case-insensitively by full name. It is total
// over any two inventories; repeated calls over the same inputs yield an
// identical slice.
func Classify(source, dest inventory.Inventory, opts Options) []Entry {
	keys := make(map[inventory.Key]struct{}, len(source)+len(dest))
	for key := range source {
		keys[key] = struct{}{}
	}
	for key := range dest {
		keys[key] = struct{}{}
	}

	entries := make([]Entry, 0, len(keys))
	for key := range keys {
		srcComp, inSource := source[key]
		dstComp, inDest := dest[key]

		entry := Entry{
			Type:     key.Type,
			FullName: key.FullName,
		}
		if inSource {
			mustValidComponent(srcComp)
			entry.SourceHash = srcComp.ContentHash
		}
		if inDest {
			mustValidComponent(dstComp)
			entry.DestHash = dstComp.ContentHash
		}

		switch {
		case opts.ExemptTypes[key.Type]:
			entry.Status = StatusUnchanged
		case inSource && !inDest:
			entry.Status = StatusAdded
		case !inSource && inDest:
			entry.Status = StatusRemoved
		case entry.SourceHash != entry.DestHash:
			entry.Status = StatusChanged
		default:
			entry.Status = StatusUnchanged
		}

		entries = append(entries, entry)
	}

	Sort(entries)
	return entries
}

// Sort orders entries by type (ordinal ascending), then by full name
// (case-insensitive, ordinal tie-break). Manifest and report output inherit
// this order, so repeated runs are byte-identical.
func Sort(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type < entries[j].Type
		}
		return lessName(entries[i].FullName, entries[j].FullName)
	})
}

func lessName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// Summarize counts entries per status
func Summarize(entries []Entry) Summary {
	var s Summary
	for _, entry := range entries {
		switch entry.Status {
		case StatusAdded:
			s.Added++
		case StatusChanged:
			s.Changed++
		case StatusRemoved:
			s.Removed++
		case StatusUnchanged:
			s.Unchanged++
		}
	}
	return s
}

// mustValidComponent enforces the contract between the builder and the
// classifier. A component without key fields or hash is a programming
// defect upstream, not a user error.
func mustValidComponent(c inventory.Component) {
	if c.Type == "" || c.FullName == "" || c.ContentHash == "" {
		panic(fmt.Sprintf("delta: malformed component %+v", c))
	}
}
