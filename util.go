package main

// labelSpecials are the punctuation characters RFC 2812 allows in nicks and
// channel names.
const labelSpecials = "{}|^[]\\-_`"

// labelToLower case-folds a label per RFC 2812: ASCII lowercasing plus
// [ -> {, ] -> }, \ -> |. Folded forms are the lookup keys in both
// registries.
func labelToLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'A' && c <= 'Z':
			b[i] = c + ('a' - 'A')
		case c == '[':
			b[i] = '{'
		case c == ']':
			b[i] = '}'
		case c == '\\':
			b[i] = '|'
		}
	}
	return string(b)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLabelSpecial(c byte) bool {
	for i := 0; i < len(labelSpecials); i++ {
		if labelSpecials[i] == c {
			return true
		}
	}
	return false
}

// isValidLabel reports whether s is a valid nickname: ASCII, non-empty,
// first character a letter or special, the rest letters, digits, or
// specials.
func isValidLabel(s string) bool {
	if len(s) == 0 {
		return false
	}
	if !isLetter(s[0]) && !isLabelSpecial(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isLetter(s[i]) && !isDigit(s[i]) && !isLabelSpecial(s[i]) {
			return false
		}
	}
	return true
}

// isValidChannelName reports whether s is a channel name: a '#' followed by
// a valid label.
func isValidChannelName(s string) bool {
	if len(s) < 2 || s[0] != '#' {
		return false
	}
	return isValidLabel(s[1:])
}

// matchesMask reports whether s matches the glob mask, where '?' matches
// one character and '*' any run. Both sides are case-folded first.
func matchesMask(s, mask string) bool {
	return globMatch(labelToLower(s), labelToLower(mask))
}

func globMatch(s, pattern string) bool {
	si, pi := 0, 0
	starSi, starPi := -1, -1

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			si++
			pi++
		case pi < len(pattern) && pattern[pi] == '*':
			starSi, starPi = si, pi
			pi++
		case starPi >= 0:
			starSi++
			si = starSi
			pi = starPi + 1
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
