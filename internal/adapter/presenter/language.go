package presenter

import "strings"

// Language is the UI language of a rendered report
type Language string

const (
	LanguageKorean  Language = "ko"
	LanguageEnglish Language = "en"
)

// LanguageFromPath picks the language from a request path; /en/ prefixed paths are English
func LanguageFromPath(path string) Language {
	if path == "/en" || strings.HasPrefix(path, "/en/") {
		return LanguageEnglish
	}
	return LanguageKorean
}

// ParseLanguage maps a language code to a Language, defaulting to Korean
func ParseLanguage(code string) Language {
	if strings.EqualFold(strings.TrimSpace(code), string(LanguageEnglish)) {
		return LanguageEnglish
	}
	return LanguageKorean
}

var labels = map[Language]map[string]string{
	LanguageKorean: {
		"date":        "날짜",
		"ticker":      "종목",
		"price":       "가격",
		"shares":      "매수 수량",
		"held":        "보유 수량",
		"spent":       "매수 금액",
		"cash":        "잔여 현금",
		"rule":        "조건",
		"default":     "기본 배분",
		"holdings":    "보유 평가액",
		"assets":      "총 자산",
		"contributed": "총 투자금",
		"profit":      "수익",
		"rate":        "수익률",
		"unvalued":    "가격 없음",
		"periods":     "투자 횟수",
	},
	LanguageEnglish: {
		"date":        "Date",
		"ticker":      "Ticker",
		"price":       "Price",
		"shares":      "Bought",
		"held":        "Held",
		"spent":       "Spent",
		"cash":        "Cash",
		"rule":        "Rule",
		"default":     "default split",
		"holdings":    "Holdings value",
		"assets":      "Total assets",
		"contributed": "Total contributed",
		"profit":      "Profit",
		"rate":        "Profit rate",
		"unvalued":    "no price",
		"periods":     "Periods",
	},
}

// Label returns the display label for key in lang
func Label(lang Language, key string) string {
	if l, ok := labels[lang][key]; ok {
		return l
	}
	return key
}
