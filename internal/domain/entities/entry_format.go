package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	FormatYAMLFrontMatter = "yaml-frontmatter"
	FormatTOMLFrontMatter = "toml-frontmatter"
	FormatJSONFrontMatter = "json-frontmatter"
	FormatFrontMatter     = "frontmatter"
	FormatYAML            = "yaml"
	FormatYML             = "yml"
	FormatTOML            = "toml"
	FormatJSON            = "json"

	// BodyField holds the Markdown body of front matter formats.
	BodyField = "body"

	yamlIndent = 2
)

// EntryFormat returns the effective serialisation format of a collection or file.
func EntryFormat(collection *Collection, file *CollectionFile) string {
	if file != nil && file.Format != "" {
		return file.Format
	}
	if collection.Format != "" {
		return collection.Format
	}
	extension := collection.FileExtension()
	if file != nil {
		if idx := strings.LastIndex(file.File, "."); idx >= 0 {
			extension = file.File[idx+1:]
		}
	}
	switch extension {
	case "yml", "yaml":
		return FormatYAML
	case "toml":
		return FormatTOML
	case "json":
		return FormatJSON
	default:
		return FormatYAMLFrontMatter
	}
}

// FormatEntry serialises entry content in the given format.
func FormatEntry(content map[string]any, format string) (string, error) {
	switch format {
	case FormatYAML, FormatYML:
		return marshalYAML(content)
	case FormatTOML:
		data, err := toml.Marshal(content)
		if err != nil {
			return "", fmt.Errorf("failed to format TOML: %w", err)
		}
		return string(data), nil
	case FormatJSON:
		return marshalJSON(content)
	case FormatYAMLFrontMatter, FormatFrontMatter, "":
		return formatFrontMatter(content, "---", "---", marshalYAML)
	case FormatTOMLFrontMatter:
		return formatFrontMatter(content, "+++", "+++", func(v map[string]any) (string, error) {
			data, err := toml.Marshal(v)
			return string(data), err
		})
	case FormatJSONFrontMatter:
		body, meta := splitBody(content)
		if len(meta) == 0 {
			return body, nil
		}
		data, err := marshalJSON(meta)
		if err != nil {
			return "", err
		}
		return data + body, nil
	default:
		return "", fmt.Errorf("unsupported entry format %q", format)
	}
}

// ParseEntry is the reverse of FormatEntry.
func ParseEntry(text, format string) (map[string]any, error) {
	content := map[string]any{}

	switch format {
	case FormatYAML, FormatYML:
		if err := yaml.Unmarshal([]byte(text), &content); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal([]byte(text), &content); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal([]byte(text), &content); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAMLFrontMatter, FormatFrontMatter, "":
		return parseFrontMatter(text, "---", "---", func(data []byte, v *map[string]any) error {
			return yaml.Unmarshal(data, v)
		})
	case FormatTOMLFrontMatter:
		return parseFrontMatter(text, "+++", "+++", func(data []byte, v *map[string]any) error {
			return toml.Unmarshal(data, v)
		})
	case FormatJSONFrontMatter:
		decoder := json.NewDecoder(strings.NewReader(text))
		if strings.HasPrefix(strings.TrimSpace(text), "{") {
			if err := decoder.Decode(&content); err != nil {
				return nil, fmt.Errorf("failed to parse JSON front matter: %w", err)
			}
			text = text[decoder.InputOffset():]
		}
		if body := strings.TrimPrefix(text, "\n"); body != "" {
			content[BodyField] = body
		}
	default:
		return nil, fmt.Errorf("unsupported entry format %q", format)
	}

	return content, nil
}

func formatFrontMatter(
	content map[string]any, open, closing string, marshal func(map[string]any) (string, error),
) (string, error) {
	body, meta := splitBody(content)
	if len(meta) == 0 {
		return body, nil
	}
	data, err := marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to format front matter: %w", err)
	}
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}
	return open + "\n" + data + closing + "\n" + body, nil
}

func parseFrontMatter(
	text, open, closing string, unmarshal func([]byte, *map[string]any) error,
) (map[string]any, error) {
	content := map[string]any{}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	if !strings.HasPrefix(normalized, open+"\n") {
		if normalized != "" {
			content[BodyField] = normalized
		}
		return content, nil
	}

	rest := "\n" + strings.TrimPrefix(normalized, open+"\n")
	head, body, found := strings.Cut(rest, "\n"+closing)
	if !found {
		return nil, fmt.Errorf("front matter is not closed with %q", closing)
	}
	if err := unmarshal([]byte(head), &content); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}
	if content == nil {
		content = map[string]any{}
	}
	body = strings.TrimPrefix(body, "\n")
	if body != "" {
		content[BodyField] = body
	}
	return content, nil
}

func splitBody(content map[string]any) (string, map[string]any) {
	meta := make(map[string]any, len(content))
	body := ""
	for key, value := range content {
		if key == BodyField {
			body = fmt.Sprint(value)
			continue
		}
		meta[key] = value
	}
	return body, meta
}

func marshalYAML(value map[string]any) (string, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndent)
	if err := encoder.Encode(value); err != nil {
		return "", fmt.Errorf("failed to format YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to format YAML: %w", err)
	}
	return buffer.String(), nil
}

func marshalJSON(value map[string]any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format JSON: %w", err)
	}
	return string(data) + "\n", nil
}
