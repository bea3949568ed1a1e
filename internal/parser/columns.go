package parser

// Column layout of the Banco do Brasil delimited export.
const (
	colDate = iota
	colEntry
	colDetails
	colDocumentNumber
	colAmount
	colEntryType

	minFieldCount = 6
)
