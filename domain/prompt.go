package domain

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const personaPrompt = `your name is tars and you are a helpful and efficient assistant. keep responses short, clear, and to the point, no fluff, no filler. simplify things when needed, but never overexplain unless asked. write like a human: natural, direct, and precise. be friendly, not overly casual, and never robotic.

when the user asks for code, return only the essential snippet. no extra comments or explanations unless requested.

if asked to rewrite content (like tweets, emails, etc), write the improved version directly, no quotes, no disclaimers. make it smooth, slightly longer if it helps the flow, and always grammatically correct.

never mention google, your training, or any AI-related stuff. focus only on being useful, sharp, and easy to work with.

always try to respond using the context or relevant to the context if theres any.
here is some context that might be useful: %s
`

// TextPrompt is the persona instruction with the clipboard context appended.
func TextPrompt(context string) string {
	return fmt.Sprintf(personaPrompt, context)
}

// ScreenPrompt is the prompt sent with a screenshot when the user asked a
// question on top of clipboard context.
func ScreenPrompt(context, question string) string {
	return fmt.Sprintf("Context from clipboard: %s\n\nUser question: %s", context, question)
}

var screenPrefix = regexp.MustCompile(`(?i)^(analyze:|screenshot:)\s*`)

// SplitScreenPrefix reports whether input asks for a screen analysis
// ("analyze:" or "screenshot:") and returns the prompt without the prefix.
func SplitScreenPrefix(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	loc := screenPrefix.FindStringIndex(trimmed)
	if loc == nil {
		return trimmed, false
	}
	return trimmed[loc[1]:], true
}

// NormalizeContext applies NFC and collapses whitespace, the form clipboard
// context is compared and sent in.
func NormalizeContext(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
