package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func lookupAndRead(fs Filesystem, name string) ([]byte, error) {
	full, err := fs.Lookup(name)
	if err != nil {
		return nil, err
	}
	return ReadFile(full)
}

func TestRootFileSystem(t *testing.T) {
	tempDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tempDir, "folder"), 0770); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "folder", "index.html"), []byte("<h1>hi</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	fs, err := NewRootFileSystem(tempDir)
	if err != nil {
		t.Fatalf("NewRootFileSystem failed: %v", err)
	}

	// Test ReadFile
	content, err := lookupAndRead(fs, "/folder/index.html")
	if err != nil {
		t.Errorf("ReadFile failed: %v", err)
	}
	if string(content) != "<h1>hi</h1>" {
		t.Errorf("Expected <h1>hi</h1>, got %s", content)
	}

	// Test directory index
	content, err = lookupAndRead(fs, "/folder/")
	if err != nil {
		t.Errorf("ReadFile on directory failed: %v", err)
	}
	if string(content) != "<h1>hi</h1>" {
		t.Errorf("Expected directory index, got %s", content)
	}

	// Test missing file
	_, err = lookupAndRead(fs, "/folder/missing.html")
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}

	// Test directory read failure
	if err := os.MkdirAll(filepath.Join(tempDir, "noindex"), 0770); err != nil {
		t.Fatal(err)
	}
	_, err = ReadFile(filepath.Join(tempDir, "noindex"))
	if !errors.Is(err, ErrReadFailure) {
		t.Errorf("Expected ErrReadFailure, got %v", err)
	}
}

func TestResolveStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	fs, err := NewRootFileSystem(root)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "/index.html", filepath.Join(root, "index.html")},
		{"nested", "/a/b/c.css", filepath.Join(root, "a", "b", "c.css")},
		{"dot dot", "/../../etc/passwd", filepath.Join(root, "etc", "passwd")},
		{"inner dot dot", "/a/../../b.txt", filepath.Join(root, "b.txt")},
		{"no leading slash", "../secret", filepath.Join(root, "secret")},
		{"backslashes", "\\..\\..\\win.ini", filepath.Join(root, "win.ini")},
		{"root", "/", root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := fs.Resolve(tt.input)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if resolved != tt.expected {
				t.Errorf("Resolve() = %q, want %q", resolved, tt.expected)
			}
			if !Contains(root, resolved) {
				t.Errorf("Resolve() = %q escapes root %q", resolved, root)
			}
		})
	}

	if _, err := fs.Resolve("/a\x00b"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Expected ErrInvalidPath for NUL byte, got %v", err)
	}
}

func TestContains(t *testing.T) {
	root := filepath.FromSlash("/srv/www")

	if !Contains(root, filepath.FromSlash("/srv/www/index.html")) {
		t.Error("file below root should be contained")
	}
	if Contains(root, filepath.FromSlash("/srv/wwwx/index.html")) {
		t.Error("sibling with shared prefix should not be contained")
	}
	if Contains(root, filepath.FromSlash("/srv")) {
		t.Error("parent should not be contained")
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		path     string
		expected string
		class    Class
	}{
		{"index.html", "text/html", ClassText},
		{"style.CSS", "text/css", ClassText},
		{"notes.txt", "text/plain", ClassText},
		{"logo.png", "image/png", ClassImage},
		{"photo.jpg", "image/jpeg", ClassImage},
		{"song.mp3", "audio/mpeg", ClassAudio},
		{"clip.mp4", "video/mp4", ClassVideo},
		{"doc.pdf", "application/pdf", ClassApplication},
		{"font.woff2", "font/woff2", ClassFont},
		{"unknown.zzz", DefaultMimeType, ClassApplication},
		{"Makefile", DefaultMimeType, ClassApplication},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			mimeType := MimeType(tt.path)
			if mimeType != tt.expected {
				t.Errorf("MimeType() = %q, want %q", mimeType, tt.expected)
			}
			if class := Classify(mimeType); class != tt.class {
				t.Errorf("Classify(%q) = %d, want %d", mimeType, class, tt.class)
			}
		})
	}
}

func TestClassBinary(t *testing.T) {
	tests := []struct {
		class  Class
		binary bool
	}{
		{ClassText, false},
		{ClassFont, false},
		{ClassImage, true},
		{ClassApplication, true},
		{ClassAudio, true},
		{ClassVideo, true},
	}

	for _, tt := range tests {
		if got := tt.class.Binary(); got != tt.binary {
			t.Errorf("Class(%d).Binary() = %v, want %v", tt.class, got, tt.binary)
		}
	}
}
