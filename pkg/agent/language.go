package agent

import "strings"

const (
	LanguageVietnamese = "vietnamese"
	LanguageEnglish    = "english"
)

const vietnameseChars = "àáạảãâầấậẩẫăằắặẳẵèéẹẻẽêềếệểễìíịỉĩòóọỏõôồốộổỗơờớợởỡùúụủũưừứựửữỳýỵỷỹđ"

var vietnameseWords = map[string]struct{}{
	"là": {}, "có": {}, "không": {}, "thế": {}, "nào": {}, "ở": {},
	"đâu": {}, "gì": {}, "như": {}, "về": {}, "của": {}, "một": {},
	"này": {}, "đó": {}, "cho": {}, "với": {}, "được": {}, "sẽ": {},
	"đã": {}, "khi": {}, "nếu": {}, "để": {}, "và": {}, "hay": {},
	"hoặc": {}, "nhưng": {}, "vì": {}, "theo": {}, "từ": {},
	"trong": {}, "trên": {}, "dưới": {}, "giữa": {}, "sau": {}, "trước": {},
}

// DetectLanguage classifies text as Vietnamese or English. Diacritics are a
// sure signal; otherwise a small stop-word intersection decides.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	if strings.ContainsAny(lower, vietnameseChars) {
		return LanguageVietnamese
	}
	for _, word := range strings.Fields(lower) {
		if _, ok := vietnameseWords[word]; ok {
			return LanguageVietnamese
		}
	}
	return LanguageEnglish
}

// IsVietnamese accepts the language labels callers pass around.
func IsVietnamese(language string) bool {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "vietnamese", "vi", "vn":
		return true
	}
	return false
}

// FallbackResponse is shown when generation fails, localized to the
// turn's language so the user never sees a raw error.
func FallbackResponse(language string) string {
	if IsVietnamese(language) {
		return "Xin lỗi, hệ thống đang gặp sự cố kỹ thuật. Vui lòng thử lại sau."
	}
	return "Sorry, the system is experiencing technical difficulties. Please try again later."
}
