package filesystem

import (
	"mime"
	"path/filepath"
	"strings"
)

const DefaultMimeType = "application/octet-stream"

// Class is the coarse top-level kind of a MIME type.
type Class uint8

const (
	ClassText Class = iota
	ClassImage
	ClassApplication
	ClassAudio
	ClassVideo
	ClassFont
)

// Binary reports whether content of this class must be served as an opaque
// byte stream. Only image, application, audio and video are; fonts keep their
// own MIME type like text.
func (class Class) Binary() bool {
	switch class {
	case ClassImage, ClassApplication, ClassAudio, ClassVideo:
		return true
	default:
		return false
	}
}

// Types the stdlib table only knows about when the host has a mime.types file.
var extensionTypes = map[string]string{
	".txt":   "text/plain",
	".md":    "text/markdown",
	".csv":   "text/csv",
	".ico":   "image/x-icon",
	".bmp":   "image/bmp",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".ogg":   "audio/ogg",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".zip":   "application/zip",
	".gz":    "application/gzip",
}

// MimeType guesses the MIME type of path from its extension. Parameters such
// as charset are dropped. Unknown extensions yield DefaultMimeType.
func MimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return DefaultMimeType
	}

	if mimeType, found := extensionTypes[ext]; found {
		return mimeType
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return DefaultMimeType
	}

	essence, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return DefaultMimeType
	}

	return essence
}

func Classify(mimeType string) Class {
	top, _, _ := strings.Cut(strings.ToLower(mimeType), "/")

	switch top {
	case "image":
		return ClassImage
	case "application":
		return ClassApplication
	case "audio":
		return ClassAudio
	case "video":
		return ClassVideo
	case "font":
		return ClassFont
	default:
		return ClassText
	}
}
