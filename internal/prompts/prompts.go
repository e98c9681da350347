package prompts

// DelegateSystem is the system prompt for the escalation model that handles
// transcripts no scenario covers.
const DelegateSystem = "You are a helpdesk assistant for municipal utility services (electricity, water, " +
	"waste, street lighting). Keep replies short, plain, and suitable for being read aloud. " +
	"If the issue needs a human, say you are connecting the caller to an agent."

// primingByLang maps a language code to the context-priming phrase list
// attached to outbound transcription calls. The phrases bias recognition
// toward helpdesk vocabulary in that language.
var primingByLang = map[string]string{
	"en": "Helpdesk terms: power outage, water tank, water supply, electricity bill, " +
		"street light, gas cylinder, garbage collection, complaint number.",
	"hi": "हेल्पडेस्क शब्द: बिजली कटौती, पानी की टंकी, पानी की आपूर्ति, बिजली का बिल, " +
		"स्ट्रीट लाइट, गैस सिलेंडर, कचरा संग्रहण, शिकायत नंबर.",
	"ml": "ഹെൽപ്പ്ഡെസ്ക് പദങ്ങൾ: വൈദ്യുതി മുടക്കം, വാട്ടർ ടാങ്ക്, ജലവിതരണം, " +
		"വൈദ്യുതി ബിൽ, തെരുവുവിളക്ക്, പരാതി നമ്പർ.",
	"ta": "ஹெல்ப்டெஸ்க் சொற்கள்: மின்தடை, தண்ணீர் தொட்டி, குடிநீர் விநியோகம், " +
		"மின் கட்டணம், தெரு விளக்கு, புகார் எண்.",
}

// Priming returns the phrase list for a language code, falling back to the
// English list when the code has no dedicated list.
func Priming(code string) string {
	if p, ok := primingByLang[code]; ok {
		return p
	}
	return primingByLang["en"]
}
