package entities

// I18nConfig is the effective i18n configuration of one collection or collection file.
type I18nConfig struct {
	Enabled                       bool
	Structure                     string
	Locales                       []string
	DefaultLocale                 string
	OmitDefaultLocaleFromFileName bool
}

// I18nFor resolves the effective i18n configuration for a collection and,
// for file collections, one of its files. The site-wide settings are the
// base; collection and file overrides are applied on top.
func (s *Settings) I18nFor(collection *Collection, file *CollectionFile) I18nConfig {
	disabled := I18nConfig{
		Structure:     I18nSingleFile,
		Locales:       []string{DefaultLocaleKey},
		DefaultLocale: DefaultLocaleKey,
	}
	if s.I18n == nil || collection == nil || !collection.I18n.Enabled {
		return disabled
	}
	if file != nil && !file.I18n.Enabled {
		return disabled
	}

	config := I18nConfig{
		Enabled:                       true,
		Structure:                     s.I18n.Structure,
		Locales:                       append([]string(nil), s.I18n.Locales...),
		DefaultLocale:                 s.I18n.DefaultLocale,
		OmitDefaultLocaleFromFileName: s.I18n.OmitDefaultLocaleFromFileName,
	}
	applyI18nOverrides(&config, collection.I18n.Overrides)
	if file != nil {
		applyI18nOverrides(&config, file.I18n.Overrides)
	}

	if len(config.Locales) == 0 {
		return disabled
	}
	if config.Structure == "" {
		config.Structure = I18nMultipleFiles
	}
	if config.DefaultLocale == "" || !contains(config.Locales, config.DefaultLocale) {
		config.DefaultLocale = config.Locales[0]
	}
	return config
}

func applyI18nOverrides(config *I18nConfig, overrides *I18nSettings) {
	if overrides == nil {
		return
	}
	if overrides.Structure != "" {
		config.Structure = overrides.Structure
	}
	if len(overrides.Locales) > 0 {
		// collections may only narrow the site-wide locales
		var narrowed []string
		for _, locale := range overrides.Locales {
			if contains(config.Locales, locale) {
				narrowed = append(narrowed, locale)
			}
		}
		if len(narrowed) > 0 {
			config.Locales = narrowed
		}
	}
	if overrides.DefaultLocale != "" {
		config.DefaultLocale = overrides.DefaultLocale
	}
	if overrides.OmitDefaultLocaleFromFileName {
		config.OmitDefaultLocaleFromFileName = true
	}
}
