package merge

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	placeholderFilename = "{filename}"
	placeholderIndex    = "{index}"
	placeholderPath     = "{path}"
	placeholderBasename = "{basename}"
	placeholderSuffix   = "{suffix}"
	placeholderSize     = "{size}"
	placeholderDate     = "{date}"
	placeholderTime     = "{time}"

	headerDateLayout = "2006-01-02"
	headerTimeLayout = "15:04:05"

	nameDot = "."
)

// FileMetadata describes a merged file for header rendering.
type FileMetadata struct {
	Path         string
	Index        int
	SizeBytes    int64
	LastModified time.Time
}

// RenderHeader substitutes every placeholder of template with values from metadata. An empty
// template yields an empty header.
func RenderHeader(template string, metadata FileMetadata) string {
	if template == "" {
		return ""
	}
	fileName := filepath.Base(metadata.Path)
	replacer := strings.NewReplacer(
		placeholderFilename, fileName,
		placeholderIndex, strconv.Itoa(metadata.Index),
		placeholderPath, metadata.Path,
		placeholderBasename, baseName(fileName),
		placeholderSuffix, suffix(fileName),
		placeholderSize, strconv.FormatInt(metadata.SizeBytes, 10),
		placeholderDate, metadata.LastModified.Format(headerDateLayout),
		placeholderTime, metadata.LastModified.Format(headerTimeLayout),
	)
	return replacer.Replace(template)
}

// baseName is the file name up to its first dot.
func baseName(fileName string) string {
	if dotIndex := strings.Index(fileName, nameDot); dotIndex >= 0 {
		return fileName[:dotIndex]
	}
	return fileName
}

// suffix is the file name after its last dot.
func suffix(fileName string) string {
	if dotIndex := strings.LastIndex(fileName, nameDot); dotIndex >= 0 {
		return fileName[dotIndex+1:]
	}
	return ""
}
