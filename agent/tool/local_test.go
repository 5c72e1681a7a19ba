package tool

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileReadToolReadsTextFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "hello from disk\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	out, err := NewFileReadTool().Handler(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	payload := out.(map[string]any)

	if payload["content"] != content {
		t.Fatalf("unexpected content %q", payload["content"])
	}
	if payload["size_bytes"] != int64(len(content)) {
		t.Fatalf("unexpected size %v", payload["size_bytes"])
	}
	if payload["path"] != path {
		t.Fatalf("unexpected path %v", payload["path"])
	}
}

func TestFileReadToolRejectsBinaryContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(path, []byte{0x7f, 0x45, 0x4c, 0x46, 0x00, 0x01}, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := NewFileReadTool().Handler(context.Background(), map[string]any{"path": path})
	if err == nil || !strings.Contains(err.Error(), "binary") {
		t.Fatalf("expected binary rejection, got %v", err)
	}
}

func TestFileReadToolRejectsDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewFileReadTool().Handler(context.Background(), map[string]any{"path": dir})
	if err == nil || !strings.Contains(err.Error(), "directory") {
		t.Fatalf("expected directory rejection, got %v", err)
	}
}

func TestFileReadToolRejectsOversizedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "huge.log")
	if err := os.WriteFile(path, bytes.Repeat([]byte("a"), maxFileReadBytes+1), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := NewFileReadTool().Handler(context.Background(), map[string]any{"path": path})
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size rejection, got %v", err)
	}
}

func TestListDirectoryToolSortsEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o700); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}

	out, err := NewListDirectoryTool().Handler(context.Background(), map[string]any{"path": dir})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	payload := out.(map[string]any)

	if payload["truncated"] != false {
		t.Fatalf("expected truncated false, got %v", payload["truncated"])
	}
	entries := payload["entries"].([]map[string]any)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	wantNames := []string{"a.txt", "b.txt", "sub"}
	wantTypes := []string{"file", "file", "dir"}
	for i, entry := range entries {
		if entry["name"] != wantNames[i] || entry["type"] != wantTypes[i] {
			t.Fatalf("entry %d: expected %s/%s, got %v/%v", i, wantNames[i], wantTypes[i], entry["name"], entry["type"])
		}
	}
}

func TestResolveLocalPathBlocksSensitiveLocations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		path string
	}{
		{name: "empty", path: "   "},
		{name: "etc", path: "/etc/passwd"},
		{name: "proc", path: "/proc/self/environ"},
		{name: "ssh key", path: "/home/someone/.ssh/id_rsa"},
		{name: "aws credentials", path: "/home/someone/.aws/credentials"},
		{name: "dotenv", path: "/home/someone/project/.env"},
		{name: "netrc", path: "/home/someone/.netrc"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := resolveLocalPath(tc.path); err == nil {
				t.Fatalf("expected %q to be rejected", tc.path)
			}
		})
	}
}

func TestResolveLocalPathExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	resolved, err := resolveLocalPath("~/notes.txt")
	if err != nil {
		t.Fatalf("resolveLocalPath: %v", err)
	}
	if resolved != filepath.Join(home, "notes.txt") {
		t.Fatalf("expected home expansion, got %s", resolved)
	}
}

func TestClipboardToolRequiresGuardrails(t *testing.T) {
	t.Parallel()

	def := NewClipboardTool()
	if !def.RequiresConfirmation {
		t.Fatal("clipboard reads must require confirmation")
	}
	if len(def.RequiredPermissions) != 1 || def.RequiredPermissions[0] != PermissionClipboardRead {
		t.Fatalf("unexpected permissions %v", def.RequiredPermissions)
	}
}
