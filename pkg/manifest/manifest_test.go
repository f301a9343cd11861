package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/orgtools/orgdelta/pkg/delta"
)

var sampleEntries = []delta.Entry{
	{Type: "ApexClass", FullName: "Bar", Status: delta.StatusChanged, SourceHash: "h1", DestHash: "h2"},
	{Type: "ApexClass", FullName: "Foo", Status: delta.StatusAdded, SourceHash: "h3"},
	{Type: "CustomObject", FullName: "Account", Status: delta.StatusUnchanged, SourceHash: "h4", DestHash: "h4"},
	{Type: "CustomObject", FullName: "Old__c", Status: delta.StatusRemoved, DestHash: "h5"},
	{Type: "Profile", FullName: "Admin", Status: delta.StatusAdded, SourceHash: "h6"},
}

func TestBuildDeploy(t *testing.T) {
	pkg := BuildDeploy(sampleEntries, "61.0")

	want := []Types{
		{Name: "ApexClass", Members: []string{"Bar", "Foo"}},
		{Name: "Profile", Members: []string{"Admin"}},
	}
	if !reflect.DeepEqual(pkg.Types, want) {
		t.Errorf("Types = %+v, want %+v", pkg.Types, want)
	}
	if pkg.Version != "61.0" {
		t.Errorf("Version = %q, want 61.0", pkg.Version)
	}
}

func TestBuildDestructive(t *testing.T) {
	pkg := BuildDestructive(sampleEntries, "61.0")

	want := []Types{
		{Name: "CustomObject", Members: []string{"Old__c"}},
	}
	if !reflect.DeepEqual(pkg.Types, want) {
		t.Errorf("Types = %+v, want %+v", pkg.Types, want)
	}
}

func TestBuild_Deduplicates(t *testing.T) {
	entries := []delta.Entry{
		{Type: "ApexClass", FullName: "Foo", Status: delta.StatusAdded},
		{Type: "ApexClass", FullName: "Foo", Status: delta.StatusChanged},
	}
	pkg := BuildDeploy(entries, "61.0")
	if !reflect.DeepEqual(pkg.Types, []Types{{Name: "ApexClass", Members: []string{"Foo"}}}) {
		t.Errorf("Types = %+v, want single Foo member", pkg.Types)
	}
}

func TestWrite(t *testing.T) {
	pkg := BuildDeploy(sampleEntries, "61.0")

	var buf bytes.Buffer
	if err := pkg.Write(&buf); err != nil {
		t.Fatal(err)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>
<Package xmlns="http://soap.sforce.com/2006/04/metadata">
    <types>
        <members>Bar</members>
        <members>Foo</members>
        <name>ApexClass</name>
    </types>
    <types>
        <members>Admin</members>
        <name>Profile</name>
    </types>
    <version>61.0</version>
</Package>
`
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}

func TestWrite_Deterministic(t *testing.T) {
	pkg := BuildDeploy(sampleEntries, "61.0")

	var first bytes.Buffer
	if err := pkg.Write(&first); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		var buf bytes.Buffer
		if err := BuildDeploy(sampleEntries, "61.0").Write(&buf); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf.Bytes(), first.Bytes()) {
			t.Fatalf("run %d produced different bytes", i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	pkg := BuildDeploy(sampleEntries, "61.0")

	var buf bytes.Buffer
	if err := pkg.Write(&buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if parsed.Version != pkg.Version {
		t.Errorf("Version = %q, want %q", parsed.Version, pkg.Version)
	}
	if !reflect.DeepEqual(parsed.MemberSet(), pkg.MemberSet()) {
		t.Errorf("MemberSet() = %+v, want %+v", parsed.MemberSet(), pkg.MemberSet())
	}
}

func TestEmitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.xml")

	result, err := EmitFile(BuildDeploy(sampleEntries, "61.0"), path, true)
	if err != nil {
		t.Fatal(err)
	}
	if result != ResultWritten {
		t.Errorf("result = %v, want %v", result, ResultWritten)
	}

	parsed, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.IsEmpty() {
		t.Error("written manifest should have members")
	}
}

func TestEmitFile_EmptyStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.xml")

	_, err := EmitFile(BuildDeploy(nil, "61.0"), path, true)
	if !errors.Is(err, ErrEmptyManifest) {
		t.Fatalf("err = %v, want ErrEmptyManifest", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("strict mode should not write an empty manifest")
	}
}

func TestEmitFile_EmptyNonStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.xml")

	result, err := EmitFile(BuildDeploy(nil, "61.0"), path, false)
	if err != nil {
		t.Fatal(err)
	}
	if result != ResultNothingToDeploy {
		t.Errorf("result = %v, want %v", result, ResultNothingToDeploy)
	}

	parsed, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.IsEmpty() {
		t.Error("manifest should have zero members")
	}
	if parsed.Version != "61.0" {
		t.Errorf("Version = %q, want 61.0", parsed.Version)
	}
}
