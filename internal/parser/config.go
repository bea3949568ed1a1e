package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Config describes one bank's statement grammar. Exactly one of CSV or PDF
// is set; the variant selects the parsing strategy.
type Config struct {
	Key                 string
	Name                string
	FilePatterns        []string
	SupportedExtensions []string

	CSV *CSVConfig
	PDF *PDFConfig

	filePatterns []*regexp.Regexp
}

// CSVConfig drives the delimited-format strategy.
type CSVConfig struct {
	Separator  string
	DateFormat string
	DateRegex  string
	ValueRegex string
	SkipLines  int

	dateRegex  *regexp.Regexp
	valueRegex *regexp.Regexp
}

// PDFConfig drives the document-format strategy. TransactionRegex must
// capture groups {date, description, value, optional second value}.
type PDFConfig struct {
	DateFormat       string
	TransactionRegex string

	transactionRegex *regexp.Regexp
}

// Validate compiles the configured patterns and checks structural
// invariants. It runs once at registry construction; a bank with an invalid
// grammar never becomes resolvable.
func (c *Config) Validate() error {
	if c.Key == "" || c.Name == "" {
		return fmt.Errorf("bank config requires key and name")
	}
	if (c.CSV == nil) == (c.PDF == nil) {
		return fmt.Errorf("bank %q: exactly one of csv or pdf config must be set", c.Key)
	}
	if len(c.SupportedExtensions) == 0 || len(c.FilePatterns) == 0 {
		return fmt.Errorf("bank %q: supported extensions and file patterns are required", c.Key)
	}

	c.filePatterns = make([]*regexp.Regexp, 0, len(c.FilePatterns))
	for _, pattern := range c.FilePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("bank %q: invalid file pattern %q: %w", c.Key, pattern, err)
		}
		c.filePatterns = append(c.filePatterns, re)
	}

	if c.CSV != nil {
		return c.CSV.validate(c.Key)
	}
	return c.PDF.validate(c.Key)
}

func (c *CSVConfig) validate(bank string) error {
	if c.Separator == "" || c.DateFormat == "" {
		return fmt.Errorf("bank %q: csv separator and date format are required", bank)
	}

	var err error
	if c.dateRegex, err = regexp.Compile(c.DateRegex); err != nil {
		return fmt.Errorf("bank %q: invalid date regex: %w", bank, err)
	}
	if c.valueRegex, err = regexp.Compile(c.ValueRegex); err != nil {
		return fmt.Errorf("bank %q: invalid value regex: %w", bank, err)
	}

	return nil
}

func (c *PDFConfig) validate(bank string) error {
	if c.DateFormat == "" {
		return fmt.Errorf("bank %q: pdf date format is required", bank)
	}

	var err error
	if c.transactionRegex, err = regexp.Compile(c.TransactionRegex); err != nil {
		return fmt.Errorf("bank %q: invalid transaction regex: %w", bank, err)
	}

	return nil
}

// Supports reports whether filename looks like a statement from this bank:
// the extension must be in the configured set and the lowercased name must
// match one of the configured patterns.
func (c *Config) Supports(filename string) bool {
	if filename == "" {
		return false
	}

	name := strings.ToLower(filename)
	ext := filepath.Ext(name)

	supported := false
	for _, e := range c.SupportedExtensions {
		if strings.ToLower(e) == ext {
			supported = true
			break
		}
	}
	if !supported {
		return false
	}

	for _, re := range c.filePatterns {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}
