package entities

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultSanitizeReplacement = "-"
	defaultIdentifierField     = "title"
	uuidShortLength            = 12
	uuidShorterLength          = 8
)

var templatePlaceholder = regexp.MustCompile(`{{\s*([^{}]+?)\s*}}`)

// Slugify turns free text into a file-name safe slug.
func Slugify(input string, settings SlugSettings) string {
	replacement := settings.SanitizeReplacement
	if replacement == "" {
		replacement = defaultSanitizeReplacement
	}

	text := strings.TrimSpace(input)
	if settings.CleanAccents {
		cleaner := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if cleaned, _, err := transform.String(cleaner, text); err == nil {
			text = cleaned
		}
	}
	text = strings.ToLower(text)

	ascii := settings.Encoding == SlugEncodingASCII
	var builder strings.Builder
	pendingReplacement := false
	for _, r := range text {
		if isSlugRune(r, ascii) {
			if pendingReplacement && builder.Len() > 0 {
				builder.WriteString(replacement)
			}
			pendingReplacement = false
			builder.WriteRune(r)
			continue
		}
		pendingReplacement = true
	}

	return strings.Trim(builder.String(), replacement)
}

func isSlugRune(r rune, ascii bool) bool {
	switch r {
	case '-', '_', '.', '~':
		return true
	}
	if ascii {
		return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}

// TemplateData feeds FillTemplate.
type TemplateData struct {
	Slug            string
	Locale          string
	Now             time.Time
	Fields          map[string]any
	IdentifierField string
	Settings        SlugSettings
}

// FillTemplate replaces the slug/path template placeholders. Field values are
// slugified; unknown placeholders render as an empty string.
func FillTemplate(template string, data TemplateData) string {
	now := data.Now.UTC()
	var id string

	return templatePlaceholder.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.TrimSpace(templatePlaceholder.FindStringSubmatch(match)[1])

		switch name {
		case "slug":
			if data.Slug != "" {
				return data.Slug
			}
			return Slugify(fieldString(data.Fields, identifierField(data)), data.Settings)
		case "locale":
			return data.Locale
		case "year":
			return fmt.Sprintf("%04d", now.Year())
		case "month":
			return fmt.Sprintf("%02d", int(now.Month()))
		case "day":
			return fmt.Sprintf("%02d", now.Day())
		case "hour":
			return fmt.Sprintf("%02d", now.Hour())
		case "minute":
			return fmt.Sprintf("%02d", now.Minute())
		case "second":
			return fmt.Sprintf("%02d", now.Second())
		case "uuid", "uuid_short", "uuid_shorter":
			if id == "" {
				id = uuid.NewString()
			}
			return uuidVariant(id, name)
		}

		field := strings.TrimPrefix(name, "fields.")
		if field == defaultIdentifierField {
			field = identifierField(data)
		}
		return Slugify(fieldString(data.Fields, field), data.Settings)
	})
}

// GenerateSlug renders the collection slug template for new entries, falling
// back to a short UUID when the template yields nothing.
func GenerateSlug(collection *Collection, data TemplateData) string {
	template := collection.Slug
	if template == "" {
		template = "{{" + defaultIdentifierField + "}}"
	}
	if data.IdentifierField == "" {
		data.IdentifierField = collection.IdentifierField
	}
	data.Slug = ""

	slug := FillTemplate(template, data)
	slug = strings.Trim(slug, "/")
	if slug == "" {
		slug = uuidVariant(uuid.NewString(), "uuid_short")
	}
	return slug
}

func uuidVariant(id, name string) string {
	compact := strings.ReplaceAll(id, "-", "")
	switch name {
	case "uuid_short":
		return compact[len(compact)-uuidShortLength:]
	case "uuid_shorter":
		return compact[:uuidShorterLength]
	default:
		return id
	}
}

func identifierField(data TemplateData) string {
	if data.IdentifierField != "" {
		return data.IdentifierField
	}
	return defaultIdentifierField
}

// fieldString looks up a dotted key path in nested maps.
func fieldString(fields map[string]any, key string) string {
	var current any = fields
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = m[part]
	}
	if current == nil {
		return ""
	}
	return fmt.Sprint(current)
}
