package parser

import (
	"time"

	"github.com/shopspring/decimal"
)

// CSVValidator validates split delimited-format lines: field count, a
// non-empty entry type, the configured date grammar and the configured value
// grammar over the normalized decimal string.
type CSVValidator struct {
	cfg *Config
}

func NewCSVValidator(cfg *Config) *CSVValidator {
	return &CSVValidator{cfg: cfg}
}

func (v *CSVValidator) IsValidLine(fields []string) bool {
	return v.validateFieldCount(fields) &&
		v.validateEntryType(fields) &&
		v.validateDate(fields) &&
		v.validateAmount(fields)
}

func (v *CSVValidator) validateFieldCount(fields []string) bool {
	return len(fields) >= minFieldCount
}

func (v *CSVValidator) validateEntryType(fields []string) bool {
	return CleanField(fields[colEntryType]) != ""
}

func (v *CSVValidator) validateDate(fields []string) bool {
	date := CleanField(fields[colDate])
	if date == "" || date == "00/00/0000" {
		return false
	}

	if !v.cfg.CSV.dateRegex.MatchString(date) {
		return false
	}

	_, err := time.Parse(v.cfg.CSV.DateFormat, date)
	return err == nil
}

func (v *CSVValidator) validateAmount(fields []string) bool {
	return v.cfg.CSV.valueRegex.MatchString(NormalizeDecimal(fields[colAmount]))
}

func (v *CSVValidator) ParseAmount(field string) (decimal.Decimal, string, error) {
	return ParseAmount(field)
}
