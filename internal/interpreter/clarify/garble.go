package clarify

import (
	"strings"
	"unicode"
)

// minAlphaRatio rejects numeric- or punctuation-dominated transcripts.
const minAlphaRatio = 0.5

// Stray sounds speech-to-text commonly emits for hesitation.
var hesitationSounds = map[string]bool{
	"um": true, "uh": true, "er": true, "ah": true, "mm": true,
	"hm": true, "umm": true, "uhh": true, "erm": true,
}

// IsLikelyVoiceGarble reports whether a voice transcript is too
// malformed to interpret reliably.
func IsLikelyVoiceGarble(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 {
		return true
	}
	if hesitationSounds[strings.ToLower(trimmed)] {
		return true
	}
	if isRepeatedRun(trimmed) {
		return true
	}
	return alphaRatio(trimmed) < minAlphaRatio
}

// isRepeatedRun reports a string of 4+ identical characters, which
// transcription produces for sustained noise.
func isRepeatedRun(s string) bool {
	runes := []rune(s)
	if len(runes) < 4 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

func alphaRatio(s string) float64 {
	total := 0
	alpha := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alpha) / float64(total)
}
