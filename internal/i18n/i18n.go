// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n translates the messages the admin API returns.
// German is the default; English is served when the client prefers it.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// Message is one catalog entry.
type Message struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Translation string `json:"translation"`
}

// MessageFile is the layout of locales/<lang>/messages.json.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// DefaultLanguage is used when nothing better matches.
const DefaultLanguage = "de"

// SupportedLanguages lists the catalogs shipped with the binary.
var SupportedLanguages = []string{"de", "en"}

var (
	mu           sync.RWMutex
	translations map[string]map[string]string
	matcher      = language.NewMatcher([]language.Tag{language.German, language.English})
	logger       *slog.Logger
)

// Init loads the embedded catalogs. It is safe to call more than once.
func Init(l *slog.Logger) error {
	loaded := make(map[string]map[string]string, len(SupportedLanguages))
	for _, lang := range SupportedLanguages {
		msgs, err := loadLanguage(lang)
		if err != nil {
			return fmt.Errorf("loading language %s: %w", lang, err)
		}
		loaded[lang] = msgs
	}

	mu.Lock()
	translations = loaded
	logger = l
	mu.Unlock()

	if l != nil {
		l.Info("i18n initialized", "languages", SupportedLanguages, "default", DefaultLanguage)
	}
	return nil
}

func loadLanguage(lang string) (map[string]string, error) {
	path := "locales/" + lang + "/messages.json"
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file MessageFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	msgs := make(map[string]string, len(file.Messages))
	for _, m := range file.Messages {
		msgs[m.ID] = m.Translation
	}
	return msgs, nil
}

// T translates key into lang, falling back to the default language and
// then to the key itself. args are applied with fmt.Sprintf.
func T(lang, key string, args ...any) string {
	mu.RLock()
	defer mu.RUnlock()

	translation, ok := translations[lang][key]
	if !ok && lang != DefaultLanguage {
		translation, ok = translations[DefaultLanguage][key]
		if ok && logger != nil {
			logger.Debug("missing translation, using default", "key", key, "lang", lang)
		}
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(translation, args...)
	}
	return translation
}

// MatchLanguage picks a supported language for an Accept-Language header.
func MatchLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}

// TranslationCount reports how many keys lang has.
func TranslationCount(lang string) int {
	mu.RLock()
	defer mu.RUnlock()
	return len(translations[lang])
}
