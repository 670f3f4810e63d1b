package http

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/freekieb7/weblet/filesystem"
	"github.com/freekieb7/weblet/test"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

// newWebroot lays out a small site inside a temporary directory, with a
// secret file next to (not inside) the webroot.
func newWebroot(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	webroot := filepath.Join(dir, "client")

	writeFile(t, filepath.Join(dir, "secret.txt"), []byte("do not serve"))
	writeFile(t, filepath.Join(webroot, "index.html"), []byte("<h1>home</h1>"))
	writeFile(t, filepath.Join(webroot, "css", "site.css"), []byte("body{margin:0}"))
	writeFile(t, filepath.Join(webroot, "img", "logo.png"), []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a})
	writeFile(t, filepath.Join(webroot, "docs", "index.html"), []byte("<h1>docs</h1>"))

	if err := os.MkdirAll(filepath.Join(webroot, "broken", "index.html"), 0o755); err != nil {
		t.Fatal(err)
	}

	return webroot
}

func TestStaticResolver(t *testing.T) {
	resolver, err := NewStaticResolver(newWebroot(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		status Status
		mime   string
		body   string
	}{
		{"root index", "/", StatusOK, "text/html", "<h1>home</h1>"},
		{"explicit index", "/index.html", StatusOK, "text/html", "<h1>home</h1>"},
		{"text file", "/css/site.css", StatusOK, "text/css", "body{margin:0}"},
		{"image file", "/img/logo.png", StatusOK, filesystem.DefaultMimeType, "\x89PNG\r\n"},
		{"directory index", "/docs", StatusOK, "text/html", "<h1>docs</h1>"},
		{"missing file", "/nope.html", StatusNotFound, "", notFoundBody},
		{"traversal", "/../secret.txt", StatusNotFound, "", notFoundBody},
		{"nested traversal", "/css/../../../secret.txt", StatusNotFound, "", notFoundBody},
		{"dot dot slash", "/....//secret.txt", StatusNotFound, "", notFoundBody},
		{"unreadable index", "/broken", StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolver.Resolve(tt.path)
			test.Equal(t, tt.status, res.Status)
			test.Equal(t, tt.mime, res.Mime)
			test.Equal(t, tt.body, string(res.Body))
		})
	}
}

func TestStaticResolverNotFoundMentionsStatus(t *testing.T) {
	resolver, err := NewStaticResolver(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}

	res := resolver.ServeHTTP(&Request{Path: "/missing"}).(*Response)
	test.Equal(t, StatusNotFound, res.Status)
	if !strings.Contains(string(res.Body), "404") {
		t.Errorf("404 body does not mention the status: %s", res.Body)
	}
}

func TestStaticResolverWebroot(t *testing.T) {
	webroot := t.TempDir()

	resolver, err := NewStaticResolver(webroot, nil)
	if err != nil {
		t.Fatal(err)
	}

	test.Equal(t, filepath.Clean(webroot), resolver.Webroot())
}
