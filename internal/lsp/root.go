package lsp

import (
	"os"
	"path/filepath"

	"shaderls/internal/source"
)

// workspaceRoot picks the root the client announced. rootUri wins over the
// deprecated rootPath, and the first workspace folder is the last resort.
func workspaceRoot(params initializeParams) string {
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	root = resolveStartDir(root)
	if root == "" {
		return ""
	}
	return source.CanonicalPath(root)
}

func resolveStartDir(path string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}
