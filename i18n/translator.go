package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for finding codes.
// data provides parameters substituted into "{name}" placeholders (for
// example "property" or "limit").
type Translator interface {
	Message(code string, data map[string]string) string
}

var en = map[string]string{
	"parse_error":           "is not a valid JSON file: {detail}",
	"max_depth":             "exceeds the maximum nesting depth of {limit}",
	"duplicate_key":         "has duplicate key '{property}'",
	"invalid_type":          "must be {type}",
	"const":                 "must be equal to constant",
	"invalid_enum":          "{value} is not a valid enumeration value",
	"required":              "must have required property '{property}'",
	"too_small":             "must be {comparison} {limit}",
	"too_big":               "must be {comparison} {limit}",
	"too_short":             "must NOT have fewer than {limit} {unit}",
	"too_long":              "must NOT have more than {limit} {unit}",
	"pattern":               "must match pattern \"{pattern}\"",
	"multiple_of":           "must be multiple of {limit}",
	"unique_items":          "must NOT have duplicate items (items ## {first} and {second} are identical)",
	"contains":              "must contain at least 1 valid item(s)",
	"additional_property":   "must NOT have additional property '{property}'",
	"union_no_match":        "must match a schema in {keyword}",
	"union_ambiguous":       "must match exactly one schema in oneOf",
	"not":                   "must NOT be valid",
	"discriminator_unknown": "has unknown '{field}' value {value}",
	"keyframe_order":        "keyframe '{field}' must be in ascending order",
	"keyframe_multiplicity": "there can be at most 2 keyframes with the same '{field}' value",
	"asset_reference":       "{value} is not a valid asset id",
	"unknown_key":           "has unknown property '{property}'",
}

var ja = map[string]string{
	"parse_error":           "は有効な JSON ファイルではありません: {detail}",
	"duplicate_key":         "のキー '{property}' が重複しています",
	"invalid_type":          "は {type} でなければなりません",
	"required":              "に必須プロパティ '{property}' がありません",
	"invalid_enum":          "{value} は有効な列挙値ではありません",
	"discriminator_unknown": "の '{field}' の値 {value} は未知です",
	"keyframe_order":        "キーフレームの '{field}' は昇順でなければなりません",
	"keyframe_multiplicity": "同じ '{field}' を持つキーフレームは 2 つまでです",
	"asset_reference":       "{value} は有効なアセット ID ではありません",
	"unknown_key":           "に未知のプロパティ '{property}' があります",
}

// dictTranslator is the built-in dictionary-based Translator.
// Codes missing from a language fall back to English.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := "", false
	if t.lang == "ja" {
		tmpl, ok = ja[code]
	}
	if !ok {
		tmpl, ok = en[code]
	}
	if !ok {
		return code
	}
	return expand(tmpl, data)
}

func expand(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// Message renders code in the given built-in language without touching the
// current Translator. Unknown languages use English.
func Message(lang, code string, data map[string]string) string {
	return dictTranslator{lang: lang}.Message(code, data)
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
