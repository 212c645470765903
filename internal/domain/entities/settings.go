package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	logger "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	BackendGitHub   = "github"
	BackendGitLab   = "gitlab"
	BackendGitea    = "gitea"
	BackendForgejo  = "forgejo"
	BackendLocal    = "local"
	BackendTestRepo = "test-repo"

	AuthTypeDefault = ""
	AuthTypePKCE    = "pkce"
	AuthTypeToken   = "token"

	I18nMultipleFolders         = "multiple_folders"
	I18nMultipleFoldersI18nRoot = "multiple_folders_i18n_root"
	I18nMultipleFiles           = "multiple_files"
	I18nSingleFile              = "single_file"

	// DefaultLocaleKey is the pseudo locale used when i18n is disabled.
	DefaultLocaleKey = "_default"

	SlugEncodingUnicode = "unicode"
	SlugEncodingASCII   = "ascii"
)

// Settings is the site configuration consumed by the backend engine.
type Settings struct {
	Backend      BackendSettings `yaml:"backend"`
	MediaFolder  string          `yaml:"media_folder"`
	PublicFolder string          `yaml:"public_folder"`
	I18n         *I18nSettings   `yaml:"i18n"`
	Slug         SlugSettings    `yaml:"slug"`
	Collections  []Collection    `yaml:"collections"`
}

// BackendSettings is the "backend" section of the site configuration.
type BackendSettings struct {
	Name                 string            `yaml:"name"`
	Repo                 string            `yaml:"repo"`
	Branch               string            `yaml:"branch"`
	BaseURL              string            `yaml:"base_url"`
	AuthEndpoint         string            `yaml:"auth_endpoint"`
	AuthType             string            `yaml:"auth_type"`
	AppID                string            `yaml:"app_id"`
	APIRoot              string            `yaml:"api_root"`
	GraphQLAPIRoot       string            `yaml:"graphql_api_root"`
	Token                string            `yaml:"token"` // inline, ${ENV_VAR}, or file path
	CommitMessages       map[string]string `yaml:"commit_messages"`
	AutomaticDeployments *bool             `yaml:"automatic_deployments"`
	SkipCI               *bool             `yaml:"skip_ci"`

	// LocalRoot is the working tree of the local backend, set from the command line.
	LocalRoot string `yaml:"-"`
}

// I18nSettings is the site-wide "i18n" section.
type I18nSettings struct {
	Structure                     string   `yaml:"structure"`
	Locales                       []string `yaml:"locales"`
	DefaultLocale                 string   `yaml:"default_locale"`
	OmitDefaultLocaleFromFileName bool     `yaml:"omit_default_locale_from_filename"`
}

// SlugSettings is the "slug" section.
type SlugSettings struct {
	Encoding            string `yaml:"encoding"`
	CleanAccents        bool   `yaml:"clean_accents"`
	SanitizeReplacement string `yaml:"sanitize_replacement"`
}

// Collection is a folder collection (Folder set) or a file collection (Files set).
type Collection struct {
	Name            string           `yaml:"name"`
	Label           string           `yaml:"label"`
	Folder          string           `yaml:"folder"`
	Files           []CollectionFile `yaml:"files"`
	Extension       string           `yaml:"extension"`
	Format          string           `yaml:"format"`
	Path            string           `yaml:"path"`
	Slug            string           `yaml:"slug"`
	IdentifierField string           `yaml:"identifier_field"`
	MediaFolder     string           `yaml:"media_folder"`
	I18n            CollectionI18n   `yaml:"i18n"`
}

// CollectionFile is one fixed file of a file collection.
type CollectionFile struct {
	Name   string         `yaml:"name"`
	Label  string         `yaml:"label"`
	File   string         `yaml:"file"`
	Format string         `yaml:"format"`
	I18n   CollectionI18n `yaml:"i18n"`
}

// CollectionI18n accepts either a boolean or an object overriding the
// site-wide i18n settings.
type CollectionI18n struct {
	Enabled   bool
	Overrides *I18nSettings
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CollectionI18n) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&c.Enabled)
	}
	var overrides I18nSettings
	if err := value.Decode(&overrides); err != nil {
		return err
	}
	c.Enabled = true
	c.Overrides = &overrides
	return nil
}

// IsFileCollection reports whether the collection lists fixed files.
func (c *Collection) IsFileCollection() bool {
	return len(c.Files) > 0
}

// FileByName returns the named file of a file collection.
func (c *Collection) FileByName(name string) (*CollectionFile, bool) {
	for i := range c.Files {
		if c.Files[i].Name == name {
			return &c.Files[i], true
		}
	}
	return nil, false
}

// FileExtension returns the extension of entry files, derived from the format when unset.
func (c *Collection) FileExtension() string {
	if c.Extension != "" {
		return strings.TrimPrefix(c.Extension, ".")
	}
	switch c.Format {
	case "yml", "yaml":
		return "yml"
	case "toml":
		return "toml"
	case "json":
		return "json"
	default:
		return "md"
	}
}

// CollectionByName returns the named collection.
func (s *Settings) CollectionByName(name string) (*Collection, bool) {
	for i := range s.Collections {
		if s.Collections[i].Name == name {
			return &s.Collections[i], true
		}
	}
	return nil, false
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads, resolves and validates a site configuration file.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings parses and validates a site configuration document.
func ParseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file: %w", ErrInvalidConfig, err)
	}

	settings.Backend.Token = ResolveToken(settings.Backend.Token)
	if settings.Backend.Name == BackendForgejo {
		settings.Backend.Name = BackendGitea
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

//nolint:gochecknoglobals // read-only search lists
var (
	configDirs = []string{
		".", ".config", "configs",
		filepath.Join("static", "admin"), filepath.Join("public", "admin"), "admin",
	}
	configNames = []string{".headcms.yaml", ".headcms.yml", "headcms.yaml", "headcms.yml", "config.yml"}
)

// FindConfigFile returns the first site config found under the working
// directory, then under ~/.config/headcms.
func FindConfigFile() (string, error) {
	dirs := configDirs
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(slices.Clone(configDirs), filepath.Join(home, ".config", "headcms"))
	}
	for _, dir := range dirs {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("no site config named %s in %s",
		strings.Join(configNames, ", "), strings.Join(dirs, ", "))
}

// ResolveToken expands ${VAR} references in raw. When the result names a
// file, the token is the file's trimmed content.
func ResolveToken(raw string) string {
	expanded := envVarPattern.ReplaceAllStringFunc(raw, expandEnvVar)
	if expanded == "" {
		return ""
	}
	info, err := os.Stat(expanded)
	if err != nil || info.IsDir() {
		return expanded
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		logger.Warnf("Token file %q is unreadable, using the value as is: %v", expanded, err)
		return expanded
	}
	logger.Debugf("Token taken from %q", expanded)
	return strings.TrimSpace(string(data))
}

func expandEnvVar(placeholder string) string {
	name := envVarPattern.FindStringSubmatch(placeholder)[1]
	value := os.Getenv(name)
	if value == "" {
		logger.Warnf("backend.token references the unset variable %q", name)
	}
	return value
}

// Validate collects every configuration problem so they can be reported together.
func (s *Settings) Validate() error {
	var errs error

	errs = multierr.Append(errs, s.validateBackend())

	if s.MediaFolder == "" {
		errs = multierr.Append(errs, errors.New("media_folder is required"))
	}

	if s.I18n != nil {
		errs = multierr.Append(errs, validateI18n("i18n", s.I18n, true))
	}

	switch s.Slug.Encoding {
	case "", SlugEncodingUnicode, SlugEncodingASCII:
	default:
		errs = multierr.Append(errs, fmt.Errorf("slug.encoding %q must be unicode or ascii", s.Slug.Encoding))
	}

	seen := make(map[string]bool, len(s.Collections))
	for i := range s.Collections {
		collection := &s.Collections[i]
		errs = multierr.Append(errs, validateCollection(i, collection))
		if collection.Name != "" && seen[collection.Name] {
			errs = multierr.Append(errs, fmt.Errorf("collections[%d].name %q is duplicated", i, collection.Name))
		}
		seen[collection.Name] = true
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

func (s *Settings) validateBackend() error {
	var errs error
	backend := s.Backend

	switch backend.Name {
	case "":
		return errors.New("backend.name is required")
	case BackendGitHub, BackendGitLab, BackendGitea:
		if backend.Repo == "" {
			errs = multierr.Append(errs, errors.New("backend.repo is required"))
		} else if _, _, err := SplitRepository(backend.Repo, backend.Name == BackendGitLab); err != nil {
			errs = multierr.Append(errs, err)
		}
	case BackendLocal, BackendTestRepo:
	default:
		errs = multierr.Append(errs, fmt.Errorf("backend.name %q is not supported", backend.Name))
	}

	switch backend.AuthType {
	case AuthTypeDefault, AuthTypePKCE, AuthTypeToken:
	default:
		errs = multierr.Append(errs, fmt.Errorf("backend.auth_type %q is not supported", backend.AuthType))
	}

	for key := range backend.CommitMessages {
		if !isCommitType(key) {
			errs = multierr.Append(errs, fmt.Errorf("backend.commit_messages.%s is not a commit type", key))
		}
	}

	return errs
}

func validateI18n(field string, i18n *I18nSettings, requireLocales bool) error {
	var errs error

	switch i18n.Structure {
	case "", I18nMultipleFolders, I18nMultipleFoldersI18nRoot, I18nMultipleFiles, I18nSingleFile:
	default:
		errs = multierr.Append(errs, fmt.Errorf("%s.structure %q is not supported", field, i18n.Structure))
	}

	if requireLocales && len(i18n.Locales) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s.locales must have at least one entry", field))
	}
	for _, locale := range i18n.Locales {
		if _, err := language.Parse(locale); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s.locales: %q is not a valid locale: %w", field, locale, err))
		}
	}

	if i18n.DefaultLocale != "" && len(i18n.Locales) > 0 && !contains(i18n.Locales, i18n.DefaultLocale) {
		errs = multierr.Append(errs, fmt.Errorf("%s.default_locale %q is not listed in locales", field, i18n.DefaultLocale))
	}

	return errs
}

func validateCollection(index int, collection *Collection) error {
	var errs error

	if collection.Name == "" {
		errs = multierr.Append(errs, fmt.Errorf("collections[%d].name is required", index))
	}

	hasFolder := collection.Folder != ""
	hasFiles := len(collection.Files) > 0
	if hasFolder == hasFiles {
		errs = multierr.Append(errs, fmt.Errorf("collections[%d] must define exactly one of folder or files", index))
	}

	for j, file := range collection.Files {
		if file.Name == "" || file.File == "" {
			errs = multierr.Append(errs, fmt.Errorf("collections[%d].files[%d] requires name and file", index, j))
		}
		if file.I18n.Overrides != nil {
			errs = multierr.Append(errs, validateI18n(
				fmt.Sprintf("collections[%d].files[%d].i18n", index, j), file.I18n.Overrides, false,
			))
		}
	}

	if collection.I18n.Overrides != nil {
		errs = multierr.Append(errs, validateI18n(
			fmt.Sprintf("collections[%d].i18n", index), collection.I18n.Overrides, false,
		))
	}

	return errs
}

func isCommitType(value string) bool {
	for _, commitType := range CommitTypes() {
		if string(commitType) == value {
			return true
		}
	}
	return false
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
