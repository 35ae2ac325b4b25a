// Package i18n resolves UI labels for the configured language.
package i18n

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
)

// KeyGeneralGroup labels the synthetic group holding attributes that belong
// to no named group.
const KeyGeneralGroup = "configurator.group.general"

// Translator looks up a label by key.
type Translator interface {
	Translate(ctx context.Context, key string) (string, error)
}

type ctxKey struct{}

// WithLanguage returns a context carrying a preferred language tag, e.g. from
// an Accept-Language header.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, tag)
}

// Catalog is an in-memory Translator with one bundle per language.
type Catalog struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	bundles  map[language.Tag]map[string]string
}

// NewCatalog builds a Catalog. The fallback language must have a bundle.
func NewCatalog(fallback language.Tag, bundles map[language.Tag]map[string]string) (*Catalog, error) {
	if _, ok := bundles[fallback]; !ok {
		return nil, fmt.Errorf("no bundle for fallback language %s", fallback)
	}
	tags := []language.Tag{fallback}
	for tag := range bundles {
		if tag != fallback {
			tags = append(tags, tag)
		}
	}
	return &Catalog{
		fallback: fallback,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		bundles:  bundles,
	}, nil
}

// Default returns the built-in catalog with English and German labels,
// falling back to lang when it parses, English otherwise.
func Default(lang string) *Catalog {
	bundles := map[language.Tag]map[string]string{
		language.English: {KeyGeneralGroup: "General"},
		language.German:  {KeyGeneralGroup: "Allgemein"},
	}
	fallback := language.English
	if tag, err := language.Parse(lang); err == nil {
		if _, idx, conf := language.NewMatcher([]language.Tag{language.English, language.German}).Match(tag); conf != language.No {
			fallback = []language.Tag{language.English, language.German}[idx]
		}
	}
	c, _ := NewCatalog(fallback, bundles)
	return c
}

// Translate returns the label for key in the language found on ctx, or in
// the fallback language.
func (c *Catalog) Translate(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tag := c.fallback
	if want, ok := ctx.Value(ctxKey{}).(language.Tag); ok {
		if _, idx, conf := c.matcher.Match(want); conf != language.No {
			tag = c.tags[idx]
		}
	}
	if v, ok := c.bundles[tag][key]; ok {
		return v, nil
	}
	if v, ok := c.bundles[c.fallback][key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("no translation for %q", key)
}
