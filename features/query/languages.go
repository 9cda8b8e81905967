package query

// Language holds the response-language instruction appended to the
// system prompt. The bilingual phrasing keeps the instruction readable
// to the model even when the target script is rare in its prompt data.
type Language struct {
	Name   string
	Prompt string
}

var supportedLanguages = map[string]Language{
	"en": {Name: "English", Prompt: "Respond in English."},
	"hi": {Name: "Hindi", Prompt: "कृपया हिंदी में जवाब दें। Respond in Hindi."},
	"ta": {Name: "Tamil", Prompt: "தமிழில் பதிலளிக்கவும். Respond in Tamil."},
	"te": {Name: "Telugu", Prompt: "తెలుగులో సమాధానం ఇవ్వండి. Respond in Telugu."},
	"bn": {Name: "Bengali", Prompt: "বাংলায় উত্তর দিন. Respond in Bengali."},
	"mr": {Name: "Marathi", Prompt: "मराठीत उत्तर द्या. Respond in Marathi."},
	"gu": {Name: "Gujarati", Prompt: "ગુજરાતીમાં જવાબ આપો. Respond in Gujarati."},
	"kn": {Name: "Kannada", Prompt: "ಕನ್ನಡದಲ್ಲಿ ಉತ್ತರಿಸಿ. Respond in Kannada."},
	"ml": {Name: "Malayalam", Prompt: "മലയാളത്തിൽ മറുപടി നൽകുക. Respond in Malayalam."},
	"pa": {Name: "Punjabi", Prompt: "ਪੰਜਾਬੀ ਵਿੱਚ ਜਵਾਬ ਦਿਓ. Respond in Punjabi."},
}

// languageFor falls back to English for unknown codes rather than
// rejecting the request.
func languageFor(code string) Language {
	if lang, ok := supportedLanguages[code]; ok {
		return lang
	}
	return supportedLanguages["en"]
}
