package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"diacritics", "Chỉ số TBI của tôi là gì?", LanguageVietnamese},
		{"stop word without diacritics", "phim nay rat hay", LanguageVietnamese},
		{"plain english", "What is my trading behavior index?", LanguageEnglish},
		{"empty", "", LanguageEnglish},
		{"numbers only", "12345", LanguageEnglish},
		{"mixed with vietnamese word", "hello bạn", LanguageVietnamese},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectLanguage(tc.text))
		})
	}
}

func TestIsVietnamese(t *testing.T) {
	assert.True(t, IsVietnamese("vietnamese"))
	assert.True(t, IsVietnamese("VI"))
	assert.True(t, IsVietnamese("vn"))
	assert.False(t, IsVietnamese("english"))
	assert.False(t, IsVietnamese(""))
}

func TestFallbackResponseLocalized(t *testing.T) {
	assert.Contains(t, FallbackResponse(LanguageVietnamese), "Xin lỗi")
	assert.Contains(t, FallbackResponse(LanguageEnglish), "Sorry")
	assert.Contains(t, FallbackResponse(""), "Sorry")
}
