package plan

// Like reports whether s matches the SQL pattern p. '%' matches any run of
// characters including none, '_' matches exactly one, and '\' makes the
// next pattern character literal. Matching works on runes.
//
// The scan is greedy and remembers only the most recent '%': on a
// mismatch it retries from that wildcard with one more character
// consumed, which keeps the worst case at O(len(s)*len(p)).
func Like(s, p string) bool {
	str, pat := []rune(s), []rune(p)
	si, pi := 0, 0
	starPi, starSi := -1, 0

	for si < len(str) {
		if pi < len(pat) {
			c, width, literal := patternChar(pat, pi)
			switch {
			case !literal && c == '%':
				pi++
				starPi, starSi = pi, si
				continue
			case (!literal && c == '_') || c == str[si]:
				si++
				pi += width
				continue
			}
		}
		if starPi < 0 {
			return false
		}
		starSi++
		si, pi = starSi, starPi
	}

	for ; pi < len(pat); pi++ {
		if pat[pi] != '%' {
			return false
		}
	}
	return true
}

// patternChar decodes the pattern character at i. An escaped character
// is literal and two runes wide; a trailing '\' matches itself.
func patternChar(pat []rune, i int) (c rune, width int, literal bool) {
	if pat[i] != '\\' {
		return pat[i], 1, false
	}
	if i+1 < len(pat) {
		return pat[i+1], 2, true
	}
	return '\\', 1, true
}
