package util

// LineAndColumn converts a byte offset in src into a 1-based line and
// column, used when rendering parse errors.
func LineAndColumn(src string, pos int) (line int, column int) {
	line = 1
	column = 1
	for i, char := range src {
		if i >= pos {
			break
		}
		if char == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}
