package world

import "strings"

// Unescape expands the escape sequences allowed in authored code and
// descriptions: \n, \t and \\. Unknown escapes keep the escaped character.
func Unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Escape is the inverse of Unescape, used when displaying stored code.
func Escape(s string) string {
	r := strings.NewReplacer("\\", `\\`, "\n", `\n`, "\t", `\t`)
	return r.Replace(s)
}
