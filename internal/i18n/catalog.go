// Package i18n resolves user-facing strings by message id and language.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// GenericSoilTypeMessage is used for soil types without a dedicated entry.
const GenericSoilTypeMessage = "soil_type_generic"

//go:embed locales/*.yaml
var localeFS embed.FS

// TextResolver is the read-only lookup the evaluator and report renderer
// depend on. Implementations must be safe for concurrent use and must never
// return an empty string.
type TextResolver interface {
	Resolve(messageID, lang string) string
	ResolveSoilTypeRecommendation(soilType, lang string) string
}

type localeFile struct {
	Messages  map[string]string `yaml:"messages"`
	SoilTypes map[string]string `yaml:"soil_types"`
}

// Catalog holds every locale in memory. It is immutable after NewCatalog.
type Catalog struct {
	supported []language.Tag
	matcher   language.Matcher
	locales   map[language.Tag]localeFile
	fallback  language.Tag
}

var supportedTags = []language.Tag{
	language.English,
	language.Hindi,
	language.Marathi,
	language.Telugu,
}

// NewCatalog loads the embedded locale files.
func NewCatalog() (*Catalog, error) {
	locales := make(map[language.Tag]localeFile, len(supportedTags))
	for _, tag := range supportedTags {
		name := path.Join("locales", tag.String()+".yaml")
		raw, err := localeFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", name, err)
		}

		var lf localeFile
		if err := yaml.Unmarshal(raw, &lf); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", name, err)
		}
		locales[tag] = lf
	}

	return &Catalog{
		supported: supportedTags,
		// English first: it is what Match returns when nothing fits.
		matcher:  language.NewMatcher(supportedTags),
		locales:  locales,
		fallback: language.English,
	}, nil
}

// MustNewCatalog is NewCatalog for process start-up, where the embedded
// files failing to load is a build defect.
func MustNewCatalog() *Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Languages lists the supported language codes.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.supported))
	for i, tag := range c.supported {
		out[i] = tag.String()
	}
	return out
}

// Match maps a client supplied tag such as "hi-IN" onto a supported one.
func (c *Catalog) Match(lang string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return c.fallback
	}
	// Low confidence matches pair unrelated languages, e.g. gu with hi.
	_, index, confidence := c.matcher.Match(tag)
	if confidence < language.High {
		return c.fallback
	}
	return c.supported[index]
}

func (c *Catalog) Resolve(messageID, lang string) string {
	if text := c.locales[c.Match(lang)].Messages[messageID]; text != "" {
		return text
	}
	if text := c.locales[c.fallback].Messages[messageID]; text != "" {
		return text
	}
	return messageID
}

// ResolveSoilTypeRecommendation matches soilType exactly (case and
// whitespace sensitive). Unknown soil types get the generic message.
func (c *Catalog) ResolveSoilTypeRecommendation(soilType, lang string) string {
	if _, known := c.locales[c.fallback].SoilTypes[soilType]; !known {
		return c.Resolve(GenericSoilTypeMessage, lang)
	}
	if text := c.locales[c.Match(lang)].SoilTypes[soilType]; text != "" {
		return text
	}
	return c.locales[c.fallback].SoilTypes[soilType]
}

// MessageIDs returns every id defined for the fallback language.
func (c *Catalog) MessageIDs() []string {
	ids := make([]string, 0, len(c.locales[c.fallback].Messages))
	for id := range c.locales[c.fallback].Messages {
		ids = append(ids, id)
	}
	return ids
}

// SoilTypes returns the soil types with a dedicated recommendation.
func (c *Catalog) SoilTypes() []string {
	types := make([]string, 0, len(c.locales[c.fallback].SoilTypes))
	for soilType := range c.locales[c.fallback].SoilTypes {
		types = append(types, soilType)
	}
	return types
}
