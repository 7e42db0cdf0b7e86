package resource

import (
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^-_A-Za-z0-9. ]+`)

// Filename derives the snapshot file stem for an instance: the kind's
// FilenameFields joined with the identity key, sanitized for filesystem
// safety. The result is stable across runs for identical content, which
// keeps git diffs meaningful.
func Filename(kind Kind, instance Instance) string {
	parts := make([]string, 0, len(kind.FilenameFields)+1)
	for _, field := range kind.FilenameFields {
		if value := instance.Ref(field); value != "" {
			parts = append(parts, value)
		}
	}
	if !kind.Singleton || len(parts) == 0 {
		parts = append(parts, instance.Key)
	}
	return SanitizeFilename(strings.Join(parts, "-"))
}

func SanitizeFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(name, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.Trim(cleaned, ". ")
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}
