package logx

import (
	"regexp"
)

type SensitiveDataMaskerInterface interface {
	Mask(input []byte) []byte
}

//nolint:gochecknoglobals
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)(Authorization: Bearer ).+?(\r)"),
	// Токен бота в пути запросов к Bot API.
	regexp.MustCompile(`(/bot)\d+:[A-Za-z0-9_-]+(/)`),
	// JSON fields.
	regexp.MustCompile(`(?s)("[Pp]assword":\s?").+?(")`),
}

type SensitiveDataMasker struct {
	patterns []*regexp.Regexp
}

// NewSensitiveDataMasker маскирует стандартные поля и дополнительные
// JSON-поля с именами fields.
func NewSensitiveDataMasker(fields ...string) SensitiveDataMasker {
	patterns := make([]*regexp.Regexp, 0, len(sensitiveDataPatterns)+len(fields))
	patterns = append(patterns, sensitiveDataPatterns...)

	for _, field := range fields {
		if field == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?s)("`+regexp.QuoteMeta(field)+`":\s?").+?(")`))
	}

	return SensitiveDataMasker{patterns: patterns}
}

func (s SensitiveDataMasker) Mask(input []byte) []byte {
	for _, pattern := range s.patterns {
		input = pattern.ReplaceAll(input, []byte("${1}[MASKED]${2}"))
	}

	return input
}
