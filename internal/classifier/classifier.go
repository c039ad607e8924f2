// Package classifier turns a raw clipboard payload into a Processed
// record: a resolved data type, a generated preview, a sensitivity
// flag, and (for images) a re-encoded PNG blob plus dimension metadata.
package classifier

import (
	"encoding/json"
	"strings"

	"github.com/clipkeep/clipkeepd/internal/domain"
)

const maxPreviewChars = 200

// Classifier resolves clipboard payloads into domain.Processed records.
// It holds no state; every method is a pure function of its arguments.
type Classifier struct{}

// New returns a ready-to-use Classifier.
func New() *Classifier {
	return &Classifier{}
}

// filePlaceholder is the stable preview shown for file-reference
// payloads, since the underlying text is a file:// URL rather than
// content worth surfacing verbatim.
const filePlaceholder = "[File]"

// ProcessText classifies a text payload, producing a preview and
// sensitivity verdict from the plaintext before any encryption happens
// upstream.
func (c *Classifier) ProcessText(text string, utiTypes []string) domain.Processed {
	dataType := detectTextType(text, utiTypes)

	var preview string
	if dataType == domain.DataTypeFile {
		preview = filePlaceholder
	} else {
		preview = generateTextPreview(text)
	}

	sensitive := detectSensitiveContent(text)
	metadata := createTextMetadata(utiTypes)

	return domain.Processed{
		DataType:    dataType,
		Blob:        []byte(text),
		PreviewText: &preview,
		IsSensitive: sensitive,
		Metadata:    &metadata,
	}
}

// detectTextType resolves the payload's data type. Type tags are
// inspected first, in priority order (image-shaped tags, rtf, html,
// file reference, url, plain text/string/utf8); when the tags carry no
// stronger signal, a content sniff promotes plain text to url, rtf, or
// html.
func detectTextType(text string, utiTypes []string) domain.DataType {
	for _, uti := range utiTypes {
		lower := strings.ToLower(uti)
		switch {
		case strings.Contains(lower, "image"), strings.Contains(lower, "png"), strings.Contains(lower, "tiff"):
			return domain.DataTypeImage
		case strings.Contains(lower, "rtf"):
			return domain.DataTypeRTF
		case strings.Contains(lower, "html"):
			return domain.DataTypeHTML
		case strings.Contains(lower, "file-url"), strings.Contains(lower, "file"):
			return domain.DataTypeFile
		case strings.Contains(lower, "url"):
			return domain.DataTypeURL
		}
	}

	if isURL(text) {
		return domain.DataTypeURL
	}

	if strings.HasPrefix(text, `{\rtf`) {
		return domain.DataTypeRTF
	}

	trimmed := strings.TrimLeft(text, " \t\r\n")
	if strings.HasPrefix(trimmed, "<!DOCTYPE") ||
		strings.HasPrefix(trimmed, "<html") ||
		strings.Contains(text, "</html>") {
		return domain.DataTypeHTML
	}

	return domain.DataTypeText
}

func isURL(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "http://") ||
		strings.HasPrefix(trimmed, "https://") ||
		strings.HasPrefix(trimmed, "ftp://")
}

// generateTextPreview collapses the payload to its non-empty trimmed
// lines joined by a single space, then truncates to maxPreviewChars
// with a trailing ellipsis if needed — so a 300-character input yields
// a preview of at most 200+3 = 203 characters.
func generateTextPreview(text string) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	cleaned := strings.Join(lines, " ")

	if len(cleaned) <= maxPreviewChars {
		return cleaned
	}
	return cleaned[:maxPreviewChars] + "..."
}

// detectSensitiveContent applies five independent heuristics: a
// password-shape rule, known API-key/token prefixes, JWT shape, private
// key markers, and a secret-looking KEY=VALUE pattern. Any single match
// marks the payload sensitive.
func detectSensitiveContent(text string) bool {
	if looksLikePassword(text) {
		return true
	}
	if hasSensitivePrefix(text) {
		return true
	}
	if looksLikeJWT(text) {
		return true
	}
	if containsPrivateKeyMarker(text) {
		return true
	}
	if looksLikeSecretAssignment(text) {
		return true
	}
	return false
}

func looksLikePassword(text string) bool {
	if len(text) < 8 || len(text) > 128 {
		return false
	}
	if strings.Contains(text, " ") {
		return false
	}

	const specials = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	hasSpecial := strings.ContainsAny(text, specials)
	hasDigit := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			hasDigit = true
			break
		}
	}
	return hasSpecial && hasDigit
}

var sensitivePrefixes = []string{
	"sk-",
	"ghp_",
	"gho_",
	"github_pat_",
	"glpat-",
	"AKIA",
	"ya29.",
	"AIza",
}

func hasSensitivePrefix(text string) bool {
	for _, prefix := range sensitivePrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

func looksLikeJWT(text string) bool {
	return strings.HasPrefix(text, "eyJ") && strings.Count(text, ".") == 2
}

func containsPrivateKeyMarker(text string) bool {
	return strings.Contains(text, "BEGIN PRIVATE KEY") ||
		strings.Contains(text, "BEGIN RSA PRIVATE KEY") ||
		strings.Contains(text, "BEGIN OPENSSH PRIVATE KEY")
}

func looksLikeSecretAssignment(text string) bool {
	lower := strings.ToLower(text)
	keyword := strings.Contains(lower, "password") ||
		strings.Contains(lower, "secret") ||
		strings.Contains(lower, "api_key") ||
		strings.Contains(lower, "apikey") ||
		strings.Contains(lower, "token")
	return keyword && strings.Contains(text, "=")
}

type textMetadata struct {
	UTITypes []string `json:"uti_types"`
}

func createTextMetadata(utiTypes []string) string {
	if utiTypes == nil {
		utiTypes = []string{}
	}
	data, err := json.Marshal(textMetadata{UTITypes: utiTypes})
	if err != nil {
		return `{"uti_types":[]}`
	}
	return string(data)
}
