package parser

import (
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"github.com/brfinance/extrato/internal/domain"
	"github.com/shopspring/decimal"
)

var digitRun = regexp.MustCompile(`\d+`)

// PDFValidator validates document-format statement lines against the
// configured transaction pattern. Running-balance lines are not
// transactions and are always rejected.
type PDFValidator struct {
	cfg *Config
}

func NewPDFValidator(cfg *Config) *PDFValidator {
	return &PDFValidator{cfg: cfg}
}

// TransactionFields is the capture of one document-format statement line.
type TransactionFields struct {
	Date        string
	Description string
	Amount      string
}

func (v *PDFValidator) IsValidTransactionLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	// Lines carrying "saldo" are running balances, never transactions.
	if strings.Contains(strings.ToLower(line), "saldo") {
		return false
	}

	return v.cfg.PDF.transactionRegex.MatchString(line)
}

// ExtractFields captures {date, description, amount} from a statement line.
// When a line carries two monetary tokens, the trailing one is the
// authoritative amount and the first is discarded.
func (v *PDFValidator) ExtractFields(line string) (*TransactionFields, bool) {
	m := v.cfg.PDF.transactionRegex.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, false
	}

	amount := m[3]
	if m[4] != "" {
		amount = m[4]
	}

	return &TransactionFields{
		Date:        m[1],
		Description: strings.TrimSpace(m[2]),
		Amount:      amount,
	}, true
}

// DocumentNumber synthesizes a document number: the first run of digits in
// the description, or a stable hash of the description when it has none.
func (v *PDFValidator) DocumentNumber(description string) string {
	if m := digitRun.FindString(description); m != "" {
		return m
	}

	h := fnv.New32a()
	h.Write([]byte(description))
	return strconv.FormatUint(uint64(h.Sum32()), 10)
}

// EntryType derives the transaction direction from the amount sign.
func (v *PDFValidator) EntryType(amount decimal.Decimal) string {
	if amount.Sign() < 0 {
		return domain.EntryTypeDebit
	}
	return domain.EntryTypeCredit
}

func (v *PDFValidator) ParseAmount(field string) (decimal.Decimal, string, error) {
	return ParseAmount(field)
}
