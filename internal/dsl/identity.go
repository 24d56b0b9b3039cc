package dsl

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

var (
	yamlExtRe  = regexp.MustCompile(`(?i)\.ya?ml$`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Fingerprint returns the SHA-256 hex digest of the exact verbatim text.
// Byte-identical input always yields the same digest, which is what makes
// blind re-sync cheap: an unchanged fingerprint is a guaranteed no-op.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Slug derives the deterministic natural key for a (source, file path)
// pair: the final path segment with the YAML extension stripped,
// lowercased, non-alphanumeric runs collapsed to single dashes, prefixed
// with the source ID. Two distinct paths whose cleaned filenames
// degenerate to the same string collide; the reconciler detects that
// within a pass and disambiguates.
func Slug(sourceID, filePath string) string {
	name := baseName(filePath)
	name = yamlExtRe.ReplaceAllString(name, "")
	clean := nonAlnumRe.ReplaceAllString(strings.ToLower(name), "-")
	clean = strings.Trim(clean, "-")
	if clean == "" {
		clean = "unknown"
	}
	return sourceID + "-" + clean
}

// DisplayName picks the catalog display name: the app name declared in
// the DSL, or a title-cased form of the filename when none is declared.
func DisplayName(declared, filePath string) string {
	if declared != "" {
		return declared
	}
	name := yamlExtRe.ReplaceAllString(baseName(filePath), "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "Unnamed"
	}
	return titleWords(name)
}

// baseName returns the final path segment.
func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// titleWords uppercases the first letter of every space-separated word.
func titleWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}
