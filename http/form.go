package http

import "strings"

// DecodeForm decodes an application/x-www-form-urlencoded string. Pairs are
// split on "&", keys and values on the first "=", both are percent-decoded
// with "+" read as a space. Malformed escapes are kept literally. The last
// value wins when a key repeats.
func DecodeForm(encoded string) map[string]string {
	values := make(map[string]string)

	for _, pair := range strings.Split(encoded, "&") {
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		values[unescapeForm(key)] = unescapeForm(value)
	}

	return values
}

// unescapeForm decodes "+" and every valid %XX sequence. Invalid sequences
// stay literal without affecting the valid ones around them.
func unescapeForm(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}

	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			buf = append(buf, ' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
		default:
			buf = append(buf, c)
		}
	}

	return lossyString(buf)
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
