package parser

// BankConfigs is the static per-bank grammar configuration the registry is
// built from. These patterns are versioned data, not logic: re-validate them
// against real statement samples whenever a bank changes its export format.
func BankConfigs() []*Config {
	return []*Config{
		{
			Key:                 "banco-do-brasil",
			Name:                "Banco do Brasil",
			FilePatterns:        []string{`.*extrato.*\.csv$`, `.*bb.*\.csv$`},
			SupportedExtensions: []string{".csv"},
			CSV: &CSVConfig{
				Separator:  ",",
				DateFormat: "02/01/2006",
				DateRegex:  `^\d{2}/\d{2}/\d{4}$`,
				ValueRegex: `^[+-]?\d{1,3}([.,]\d{3})*([.,]\d{1,2})?$|^[+-]?\d+([.,]\d{1,2})?$`,
				SkipLines:  1,
			},
		},
		{
			Key:                 "itau",
			Name:                "Itaú",
			FilePatterns:        []string{`.*itau.*\.pdf$`},
			SupportedExtensions: []string{".pdf"},
			PDF: &PDFConfig{
				DateFormat:       "02/01/2006",
				TransactionRegex: `^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+(-?(?:\d{1,3}(?:\.\d{3})*|\d+),\d{2})(?:\s+(-?(?:\d{1,3}(?:\.\d{3})*|\d+),\d{2}))?$`,
			},
		},
	}
}
