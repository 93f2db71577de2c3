package datagen

// multibytePresets cover ten scripts with multi-byte UTF-8 encodings. They
// exist to exercise length prefixes computed in bytes rather than runes.
var multibytePresets = [...]string{
	"¡¢£¹º»¼½¾¿ÀÁÂ",  // latin-1 supplement
	"ЌЎЏАБВГДЕ",      // cyrillic
	"ἅἆἇἈἉἊ",         // greek extended
	"⁼⁽⁾ⁿ₀₁₂",        // super/subscripts
	"⅜⅝⅞⅟ⅠⅡⅢⅣ",       // number forms
	"ڢڣڤڥڦڧڨک",       // arabic
	"丘 丙 业 丛 东 丝",    // cjk
	"セゼソゾタ",          // katakana
	"כלםמןנס",        // hebrew
	"６７８９：；＜＝＞？＠ＡＢＣ", // full width
}

// MultibytePresetCount is the cycle length of MultibyteText.
const MultibytePresetCount = len(multibytePresets)

// MultibyteText returns the preset for rowIndex mod MultibytePresetCount. The
// column length is ignored.
func MultibyteText(rowIndex int) string {
	i := rowIndex % MultibytePresetCount
	if i < 0 {
		i += MultibytePresetCount
	}
	return multibytePresets[i]
}

// MaxMultibyteRunes is the longest preset in characters. Columns tagged
// multibyte with a smaller length will be rejected by the server.
func MaxMultibyteRunes() int {
	n := 0
	for _, s := range multibytePresets {
		if c := len([]rune(s)); c > n {
			n = c
		}
	}
	return n
}
