package types

type label struct {
	short string
	long  string
}

var labels = map[ErrorTag]label{
	BadNumberErrorTag:     {short: "Bad number", long: "A number contains more than one decimal point"},
	InvalidCharErrorTag:   {short: "Invalid", long: "The expression contains an unsupported character"},
	ParenMismatchErrorTag: {short: "( ) ?", long: "Parentheses are not balanced"},
	SyntaxErrorTag:        {short: "Syntax", long: "An operator is missing an operand"},
	DivZeroErrorTag:       {short: "Div/0", long: "Division by zero"},
	UnknownOpErrorTag:     {short: "Op?", long: "Unknown operator"},
	MathErrorTag:          {short: "Math", long: "The result is not a finite number"},
}

func ShortLabel(tag ErrorTag) string {
	if l, ok := labels[tag]; ok {
		return l.short
	}
	return "Error"
}

func LongLabel(tag ErrorTag) string {
	if l, ok := labels[tag]; ok {
		return l.long
	}
	return "Unexpected error"
}
