package checksum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestComponentSHA256(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		primary string
		sidecar string
		want    string
	}{
		{
			name:    "primary only, empty file",
			primary: writeFile(t, dir, "empty.cls", ""),
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "primary only",
			primary: writeFile(t, dir, "hello.cls", "Hello, World!"),
			want:    "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f",
		},
		{
			name:    "primary then sidecar",
			primary: writeFile(t, dir, "a.cls", "primary"),
			sidecar: writeFile(t, dir, "a.cls-meta.xml", "sidecar"),
			want:    "d9dd5e00394d330096593b480c079e2023bb7615ce1206a517732b63fac3c523",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComponentSHA256(tt.primary, tt.sidecar)
			if err != nil {
				t.Fatalf("ComponentSHA256() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ComponentSHA256() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComponentSHA256_OrderMatters(t *testing.T) {
	dir := t.TempDir()
	primary := writeFile(t, dir, "x.cls", "primary")
	sidecar := writeFile(t, dir, "x.cls-meta.xml", "sidecar")

	forward, err := ComponentSHA256(primary, sidecar)
	if err != nil {
		t.Fatal(err)
	}
	reversed, err := ComponentSHA256(sidecar, primary)
	if err != nil {
		t.Fatal(err)
	}
	if forward == reversed {
		t.Error("hash should depend on primary-then-sidecar order")
	}
}

func TestComponentSHA256_MissingFile(t *testing.T) {
	if _, err := ComponentSHA256(filepath.Join(t.TempDir(), "missing.cls"), ""); err == nil {
		t.Error("expected error for missing primary file")
	}
}

func TestSHA256Base64(t *testing.T) {
	got, err := SHA256Base64(strings.NewReader("Hello, World!"))
	if err != nil {
		t.Fatal(err)
	}
	want := "3/1gIbsr1bCvZ2KQgJ7DpTGR3YHH9wpLKGiKNiGCmG8="
	if got != want {
		t.Errorf("SHA256Base64() = %v, want %v", got, want)
	}
}
