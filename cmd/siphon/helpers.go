package main

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var countPrinter = message.NewPrinter(language.English)

// formatCount renders a count with thousands separators for table output.
func formatCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}
