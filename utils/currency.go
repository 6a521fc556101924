package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatThousands groups digits the Indonesian way: 935000 -> "935.000".
func FormatThousands(amount int64) string {
	return idPrinter.Sprintf("%d", amount)
}

// FormatRupiah formats an amount in the smallest currency unit.
// Example: 935000 -> "Rp 935.000"
func FormatRupiah(amount int64) string {
	return "Rp " + FormatThousands(amount)
}
