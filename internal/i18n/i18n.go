// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n

import (
	"context"
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

var bundle *i18n.Bundle

type localeContextKey struct{}
type localizerContextKey struct{}

// Init initializes the i18n bundle with embedded translations.
func Init() error {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, tag := range Supported {
		file := "translations/active." + tag.String() + ".toml"
		if _, err := bundle.LoadMessageFileFS(translationFS, file); err != nil {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}

	return nil
}

// WithLocale adds the locale to the context.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	locale := lang.String()
	ctx = context.WithValue(ctx, localeContextKey{}, locale)
	localizer := i18n.NewLocalizer(bundle, locale)
	return context.WithValue(ctx, localizerContextKey{}, localizer)
}

// GetLocale returns the current locale from context.
func GetLocale(ctx context.Context) string {
	if locale, ok := ctx.Value(localeContextKey{}).(string); ok {
		return locale
	}
	return "en"
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	localizer := getLocalizer(ctx)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID: messageID,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// TData translates a message with template data.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	localizer := getLocalizer(ctx)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// TPlural translates a message with plural support.
func TPlural(ctx context.Context, messageID string, count int) string {
	localizer := getLocalizer(ctx)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
	if err != nil {
		return messageID
	}
	return msg
}

// Supported lists the site languages; the first one is the fallback.
var Supported = []language.Tag{
	language.English,
	language.Persian,
}

var matcher = language.NewMatcher(Supported)

// MatchLanguage returns the supported language that best fits an
// Accept-Language header. Region subtags are dropped.
func MatchLanguage(acceptLanguage string) language.Tag {
	_, i := language.MatchStrings(matcher, acceptLanguage)
	return Supported[i]
}

// Dir returns the text direction of the current locale.
func Dir(ctx context.Context) string {
	if GetLocale(ctx) == language.Persian.String() {
		return "rtl"
	}
	return "ltr"
}

func getLocalizer(ctx context.Context) *i18n.Localizer {
	if localizer, ok := ctx.Value(localizerContextKey{}).(*i18n.Localizer); ok {
		return localizer
	}
	return i18n.NewLocalizer(bundle, "en")
}
