package model

import "sort"

// Language is an ISO 639-1 language code.
type Language string

const (
	LangEN Language = "en"
	LangDE Language = "de"
	LangFR Language = "fr"
	LangNL Language = "nl"
)

// I18NString holds one text per language.
type I18NString map[Language]string

// NewI18NString creates a string with a single translation.
func NewI18NString(lang Language, text string) I18NString {
	return I18NString{lang: text}
}

// Get returns the text for lang, falling back to English and then to any
// available translation.
func (s I18NString) Get(lang Language) string {
	if v, ok := s[lang]; ok {
		return v
	}
	if v, ok := s[LangEN]; ok {
		return v
	}
	if langs := s.Languages(); len(langs) > 0 {
		return s[langs[0]]
	}
	return ""
}

// Languages returns the available languages in sorted order.
func (s I18NString) Languages() []Language {
	langs := make([]Language, 0, len(s))
	for l := range s {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Set returns a copy with lang set to text.
func (s I18NString) Set(lang Language, text string) I18NString {
	c := s.Clone()
	if c == nil {
		c = I18NString{}
	}
	c[lang] = text
	return c
}

// Clone returns a copy of s.
func (s I18NString) Clone() I18NString {
	if s == nil {
		return nil
	}
	c := make(I18NString, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// IsEmpty reports whether no translation is present.
func (s I18NString) IsEmpty() bool { return len(s) == 0 }

// Equal compares both strings translation by translation.
func (s I18NString) Equal(o I18NString) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (s I18NString) String() string { return s.Get(LangEN) }
