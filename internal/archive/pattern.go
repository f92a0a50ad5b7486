package archive

// pattern compiles a scanner/compression exclusion pattern with exactly two
// wildcards: '*' matches any run of characters including '/'; '?' matches
// one or more characters excluding '/'. All other characters are literal.
// No third-party glob library in the retrieved corpus implements these
// semantics (gobwas/glob-style matchers treat '?' as exactly one character
// and require an explicit separator mode for '*'), so this is a small
// hand-rolled matcher rather than a stdlib or vendored substitute.
type pattern struct {
	raw string
}

// NewPattern compiles raw into a Pattern.
func NewPattern(raw string) Pattern {
	return pattern{raw: raw}
}

func (p pattern) String() string { return p.raw }

// Match reports whether path satisfies the pattern, using dynamic
// programming over (pattern index, path index) so that '*' and multi-char
// '?' runs backtrack correctly.
func (p pattern) Match(path string) bool {
	return matchPattern(p.raw, path)
}

func matchPattern(pat, s string) bool {
	// dp[i][j] = pat[i:] matches s[j:]
	pl, sl := len(pat), len(s)
	dp := make([][]int8, pl+1)
	for i := range dp {
		dp[i] = make([]int8, sl+1)
		for j := range dp[i] {
			dp[i][j] = -1
		}
	}

	var solve func(i, j int) bool
	solve = func(i, j int) bool {
		if dp[i][j] != -1 {
			return dp[i][j] == 1
		}
		var res bool
		switch {
		case i == pl:
			res = j == sl
		case pat[i] == '*':
			res = false
			for k := j; k <= sl; k++ {
				if solve(i+1, k) {
					res = true
					break
				}
			}
		case pat[i] == '?':
			// matches one or more characters excluding '/'
			res = false
			for k := j + 1; k <= sl; k++ {
				if s[k-1] == '/' {
					break
				}
				if solve(i+1, k) {
					res = true
					break
				}
			}
		default:
			res = j < sl && s[j] == pat[i] && solve(i+1, j+1)
		}
		if res {
			dp[i][j] = 1
		} else {
			dp[i][j] = 0
		}
		return res
	}

	return solve(0, 0)
}

// MatchAny reports whether path matches any of the given patterns.
func MatchAny(patterns []Pattern, path string) bool {
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// BuiltinExclusions are the five patterns enabled by -X/--builtin-excl.
func BuiltinExclusions() []Pattern {
	raw := []string{
		"/home/?/.cache/*",
		"/home/?/snap/firefox/common/.cache/*",
		"/tmp/*",
		"/dev/*",
		"/proc/*",
	}
	pats := make([]Pattern, len(raw))
	for i, r := range raw {
		pats[i] = NewPattern(r)
	}
	return pats
}
