package tool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

const (
	// PermissionFilesystemRead gates file and directory reads.
	PermissionFilesystemRead = "fs:read"
	// PermissionClipboardRead gates clipboard access.
	PermissionClipboardRead = "clipboard:read"

	maxFileReadBytes    = 256 * 1024
	maxDirectoryEntries = 200
	binarySniffBytes    = 8 * 1024
)

// Directories that local tools refuse to read regardless of permissions.
var forbiddenPathPrefixes = []string{
	"/etc", "/sys", "/proc", "/dev", "/boot", "/root/.ssh",
}

var forbiddenPathSegments = []string{
	"/.ssh/", "/.aws/", "/.gnupg/", "/.password-store/",
}

var forbiddenBaseNames = map[string]bool{
	".env":        true,
	"id_rsa":      true,
	"id_ed25519":  true,
	"credentials": true,
	".netrc":      true,
}

// RegisterLocal installs the tools that touch this machine: filesystem reads
// and the clipboard. All of them are permission-gated; the clipboard also
// asks for confirmation because its content is unpredictable.
func RegisterLocal(registry *Registry) error {
	for _, def := range []Definition{
		NewFileReadTool(),
		NewListDirectoryTool(),
		NewClipboardTool(),
	} {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func NewFileReadTool() Definition {
	return Definition{
		Name:        contractx.ToolFileRead,
		Description: "Read a text file from this machine.",
		Parameters: map[string]*schema.ParameterInfo{
			"path": {
				Type:     schema.String,
				Desc:     "File path; ~ expands to the home directory",
				Required: true,
			},
		},
		RequiredPermissions: []string{PermissionFilesystemRead},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			raw, _ := args["path"].(string)
			path, err := resolveLocalPath(raw)
			if err != nil {
				return nil, err
			}

			info, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("cannot access %s: %w", path, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%s is a directory, not a file", path)
			}
			if info.Size() > maxFileReadBytes {
				return nil, fmt.Errorf("%s is too large to read (%d bytes, limit %d)", path, info.Size(), maxFileReadBytes)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("cannot read %s: %w", path, err)
			}
			if looksBinary(content) {
				return nil, fmt.Errorf("%s looks like a binary file", path)
			}

			return map[string]any{
				"path":       path,
				"size_bytes": info.Size(),
				"content":    string(content),
			}, nil
		},
	}
}

func NewListDirectoryTool() Definition {
	return Definition{
		Name:        contractx.ToolListDirectory,
		Description: "List the entries of a directory on this machine.",
		Parameters: map[string]*schema.ParameterInfo{
			"path": {
				Type: schema.String,
				Desc: "Directory path; defaults to the current directory",
			},
		},
		RequiredPermissions: []string{PermissionFilesystemRead},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			raw, _ := args["path"].(string)
			if strings.TrimSpace(raw) == "" {
				raw = "."
			}
			path, err := resolveLocalPath(raw)
			if err != nil {
				return nil, err
			}

			dirEntries, err := os.ReadDir(path)
			if err != nil {
				return nil, fmt.Errorf("cannot list %s: %w", path, err)
			}

			sort.Slice(dirEntries, func(i, j int) bool {
				return dirEntries[i].Name() < dirEntries[j].Name()
			})

			truncated := false
			if len(dirEntries) > maxDirectoryEntries {
				dirEntries = dirEntries[:maxDirectoryEntries]
				truncated = true
			}

			entries := make([]map[string]any, 0, len(dirEntries))
			for _, entry := range dirEntries {
				kind := "file"
				if entry.IsDir() {
					kind = "dir"
				}
				entries = append(entries, map[string]any{
					"name": entry.Name(),
					"type": kind,
				})
			}

			return map[string]any{
				"path":      path,
				"entries":   entries,
				"truncated": truncated,
			}, nil
		},
	}
}

func NewClipboardTool() Definition {
	return Definition{
		Name:                 contractx.ToolClipboardRead,
		Description:          "Read the current clipboard contents.",
		RequiredPermissions:  []string{PermissionClipboardRead},
		RequiresConfirmation: true,
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			content, err := clipboard.ReadAll()
			if err != nil {
				return nil, fmt.Errorf("cannot read clipboard: %w", err)
			}
			return map[string]any{
				"content": content,
				"length":  len(content),
			}, nil
		},
	}
}

// resolveLocalPath expands ~, absolutizes, and rejects paths under system or
// credential directories.
func resolveLocalPath(raw string) (string, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", raw, err)
	}

	for _, prefix := range forbiddenPathPrefixes {
		if abs == prefix || strings.HasPrefix(abs, prefix+"/") {
			return "", fmt.Errorf("access to %s is not allowed", abs)
		}
	}
	for _, segment := range forbiddenPathSegments {
		if strings.Contains(abs+"/", segment) {
			return "", fmt.Errorf("access to %s is not allowed", abs)
		}
	}
	if forbiddenBaseNames[filepath.Base(abs)] {
		return "", fmt.Errorf("access to %s is not allowed", abs)
	}

	return abs, nil
}

func looksBinary(content []byte) bool {
	sniff := content
	if len(sniff) > binarySniffBytes {
		sniff = sniff[:binarySniffBytes]
	}
	return bytes.IndexByte(sniff, 0) >= 0
}
