package insight

// descriptions holds the one-line summary shown for each known label.
var descriptions = map[string]string{
	"Introvert": "🔵 You are reflective, calm, and value solitude.",
	"Extrovert": "🟢 You are outgoing, talkative, and love social settings.",
	"Ambivert":  "🟡 You balance both introversion and extroversion.",
	"Omnivert":  "🟣 You adapt based on situations, sometimes loud, sometimes silent.",
}

const fallbackDescription = "✨ Your answers point to a personality of your own."

// Describe returns the built-in description for label, or a generic line for
// labels the quiz has no text for.
func Describe(label string) string {
	if d, ok := descriptions[label]; ok {
		return d
	}
	return fallbackDescription
}
