package expression

// rewritePercent turns every postfix percent literal into a division by 100:
// "50%" -> "(50/100)", "-5%" -> "(-5/100)". A minus sign is folded into the
// literal only where the tokenizer would read it as unary.
func rewritePercent(source string) string {
	out := make([]byte, 0, len(source)+8)
	for i := 0; i < len(source); {
		c := source[i]
		if !isDigit(c) && c != '.' {
			out = append(out, c)
			i++
			continue
		}

		beginsPos := i
		dots, digits := 0, 0
		for ; i < len(source) && (isDigit(source[i]) || source[i] == '.'); i++ {
			if source[i] == '.' {
				dots++
			} else {
				digits++
			}
		}
		numeral := source[beginsPos:i]

		if i == len(source) || source[i] != '%' || dots > 1 || digits == 0 {
			out = append(out, numeral...)
			continue
		}
		i++ // consume '%'

		negative := false
		if n := len(out); n != 0 && out[n-1] == '-' && isUnaryPosition(out[:n-1]) {
			out = out[:n-1]
			negative = true
		}

		out = append(out, '(')
		if negative {
			out = append(out, '-')
		}
		out = append(out, numeral...)
		out = append(out, "/100)"...)
	}
	return string(out)
}

// isUnaryPosition reports whether a minus sign following prefix is unary.
func isUnaryPosition(prefix []byte) bool {
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if isSpace(c) {
			continue
		}
		return isOperator(c) || c == '('
	}
	return true
}

// insertImplicitMultiplication makes juxtaposed terms explicit:
// "2(3)" -> "2*(3)", ")(" -> ")*(", ")5" -> ")*5".
// Whitespace between the juxtaposed terms is dropped.
func insertImplicitMultiplication(source string) string {
	out := make([]byte, 0, len(source)+4)
	for i := 0; i < len(source); i++ {
		c := source[i]
		out = append(out, c)
		if !isDigit(c) && c != ')' {
			continue
		}

		j := i + 1
		for j < len(source) && isSpace(source[j]) {
			j++
		}
		if j == len(source) {
			continue
		}

		if next := source[j]; next == '(' || (c == ')' && isDigit(next)) {
			out = append(out, '*')
			i = j - 1
		}
	}
	return string(out)
}
