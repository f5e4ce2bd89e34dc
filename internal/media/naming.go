package media

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	extensionRe = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)
	fileNameRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,254}$`)
)

// storageName generates the file name for a new upload.
// Format: {contentID}_{uuid}{ext}, e.g. 7_0f8fad5b-d9cb-469f-a165-70867728950e.mp4
func storageName(contentID int64, declaredName string) string {
	return fmt.Sprintf("%d_%s%s", contentID, uuid.NewString(), extension(declaredName))
}

// extension returns the extension of a client supplied file name, or ""
// when it is anything other than a short alphanumeric suffix.
func extension(declaredName string) string {
	// Clients on Windows send backslash separated paths.
	declaredName = declaredName[strings.LastIndexAny(declaredName, `/\`)+1:]
	ext := filepath.Ext(declaredName)
	if !extensionRe.MatchString(ext) {
		return ""
	}
	return ext
}

// ValidFileName reports whether name can refer to a stored file. It rejects
// separators, dot files and the staging area.
func ValidFileName(name string) bool {
	return fileNameRe.MatchString(name) && !strings.Contains(name, "..")
}
