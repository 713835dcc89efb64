package constants

import "strings"

// File formats the text extractor knows how to handle.
const (
	PDF         = "PDF"
	IMAGE       = "IMAGE"
	SPREADSHEET = "SPREADSHEET"
	DOC         = "DOC"
)

// AllowedExtensions holds the default allowed file extensions for bill uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"xlsx": {},
	"csv":  {},
	"docx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to an extractor format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "tif", "tiff":
		return IMAGE
	case "xlsx", "csv":
		return SPREADSHEET
	case "docx":
		return DOC
	default:
		return ""
	}
}

// MapMediaTypeToFormat maps a declared media type to an extractor format.
// Falls back to "" when the type is unknown.
func MapMediaTypeToFormat(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	switch {
	case mt == "application/pdf":
		return PDF
	case strings.HasPrefix(mt, "image/"):
		return IMAGE
	case mt == "text/csv",
		mt == "application/vnd.ms-excel",
		mt == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return SPREADSHEET
	case mt == "application/msword",
		mt == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return DOC
	default:
		return ""
	}
}
