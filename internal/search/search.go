// Package search строит критерии подбора ароматов по свободному тексту.
//
// Поиск - это фильтрация, а не ранжирование: аромат подходит, если его название
// без пробелов в нижнем регистре содержит нормализованный запрос, либо любой
// фрагмент запроса длиннее MinFragmentLen встречается (без учёта регистра) в
// названии, описании или нотах.
package search

import (
	"sort"
	"strings"
	"unicode"
)

// MinFragmentLen - фрагменты такой длины и короче в поиске не участвуют
const MinFragmentLen = 3

// MaxQueryLen - запрос длиннее обрезается до стольких символов.
// Число фрагментов растёт квадратично, а каждый фрагмент - отдельный параметр запроса.
const MaxQueryLen = 64

// Criteria - разобранный поисковый запрос
type Criteria struct {
	// Normalized - запрос без пробелов в нижнем регистре
	Normalized string
	// Fragments - уникальные подстроки исходного запроса длиннее MinFragmentLen
	Fragments []string
}

// Empty сообщает, что текстового фильтра нет
func (c Criteria) Empty() bool {
	return c.Normalized == "" && len(c.Fragments) == 0
}

// Parse разбирает запрос. Пустой (после обрезки пробелов) запрос даёт пустые критерии.
func Parse(query string) Criteria {
	query = Truncate(strings.TrimSpace(query))
	if query == "" {
		return Criteria{}
	}
	return Criteria{
		Normalized: Normalize(query),
		Fragments:  Fragments(query),
	}
}

// Truncate оставляет первые MaxQueryLen символов запроса
func Truncate(query string) string {
	runes := []rune(query)
	if len(runes) <= MaxQueryLen {
		return query
	}
	return strings.TrimSpace(string(runes[:MaxQueryLen]))
}

// Normalize убирает пробелы и приводит строку к нижнему регистру
func Normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// Fragments перебирает все непрерывные подстроки, в которых больше MinFragmentLen
// непробельных символов. Результат отсортирован, чтобы SQL был детерминированным.
func Fragments(query string) []string {
	runes := []rune(query)
	seen := make(map[string]struct{})
	for i := 0; i < len(runes); i++ {
		for j := i + MinFragmentLen + 1; j <= len(runes); j++ {
			fragment := string(runes[i:j])
			if significantLen(fragment) > MinFragmentLen {
				seen[fragment] = struct{}{}
			}
		}
	}

	fragments := make([]string, 0, len(seen))
	for f := range seen {
		fragments = append(fragments, f)
	}
	sort.Strings(fragments)
	return fragments
}

// Perfume - текстовые поля аромата, по которым идёт поиск
type Perfume struct {
	Name        string
	Description string
	FirstNote   string
	HeartNote   string
	LastNote    string
}

// Match проверяет аромат в памяти. Семантика совпадает с SQL-предикатом хранилища.
func (c Criteria) Match(p Perfume) bool {
	if c.Empty() {
		return true
	}
	if strings.Contains(Normalize(p.Name), c.Normalized) {
		return true
	}
	fields := []string{p.Name, p.Description, p.FirstNote, p.HeartNote, p.LastNote}
	for _, fragment := range c.Fragments {
		needle := strings.ToLower(fragment)
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
	}
	return false
}

// significantLen - число непробельных символов запроса
func significantLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
