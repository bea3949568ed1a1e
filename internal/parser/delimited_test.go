package parser_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/brfinance/extrato/internal/parser"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const bbHeader = "Data,Lançamento,Detalhes,Número do documento,Valor,Tipo Lançamento"

func bankConfig(t *testing.T, key string) *parser.Config {
	t.Helper()

	for _, cfg := range parser.BankConfigs() {
		if cfg.Key == key {
			require.NoError(t, cfg.Validate())
			return cfg
		}
	}

	t.Fatalf("no bank config %q", key)
	return nil
}

func TestCSVParser_ParseLine(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	p := parser.NewCSVParser(log, bankConfig(t, "banco-do-brasil"))

	tx, ok := p.ParseLine(`15/01/2024,Transferencia recebida,Pix,563255,"1.234,56",Entrada`)
	require.True(t, ok)

	require.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), tx.Date)
	require.Equal(t, "Transferencia recebida", tx.Entry)
	require.Equal(t, "Pix", tx.Details)
	require.Equal(t, "563255", tx.DocumentNumber)
	require.True(t, tx.Amount.Equal(decimal.RequireFromString("1234.56")))
	require.Equal(t, "BRL", tx.Currency)
	require.Equal(t, "Entrada", tx.EntryType)
	require.Equal(t, "PENDENTE", tx.Category)
	require.Equal(t, "Banco do Brasil", tx.Bank)
}

func TestCSVParser_ParseLine_Invalid(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	p := parser.NewCSVParser(log, bankConfig(t, "banco-do-brasil"))

	tests := []struct {
		name string
		line string
	}{
		{"placeholder date", `00/00/0000,Saldo Anterior,,0,"0,00",`},
		{"blank entry type", `15/01/2024,Transferencia,Pix,1,"10,00",`},
		{"too few fields", `15/01/2024,Transferencia,Pix`},
		{"non-numeric amount", `15/01/2024,Transferencia,Pix,1,abc,Entrada`},
		{"date out of range", `32/01/2024,Transferencia,Pix,1,"10,00",Entrada`},
		{"empty line", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, ok := p.ParseLine(tt.line)
			require.False(t, ok)
		})
	}
}

func TestCSVParser_Parse_DropsMalformedLines(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	p := parser.NewCSVParser(log, bankConfig(t, "banco-do-brasil"))

	content := []byte(bbHeader + "\n" +
		`15/01/2024,Transferencia recebida,Pix,100,"1.234,56",Entrada` + "\n" +
		"not,a,transaction\n" +
		`16/01/2024,Pagamento,Boleto,101,"-50,00",Saida` + "\n" +
		`00/00/0000,Saldo Anterior,,0,"0,00",X` + "\n")

	transactions, err := p.Parse(context.Background(), "extrato.csv", content)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	// input order survives the parallel parse
	require.Equal(t, "100", transactions[0].DocumentNumber)
	require.Equal(t, "101", transactions[1].DocumentNumber)
	require.True(t, transactions[1].Amount.IsNegative())
}

func TestCSVParser_Parse_Idempotent(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	p := parser.NewCSVParser(log, bankConfig(t, "banco-do-brasil"))

	content := []byte(bbHeader + "\n" +
		`15/01/2024,Transferencia,Pix,100,"10,00",Entrada` + "\n" +
		`16/01/2024,Pagamento,Boleto,101,"-50,00",Saida` + "\n")

	first, err := p.Parse(context.Background(), "extrato.csv", content)
	require.NoError(t, err)

	second, err := p.Parse(context.Background(), "extrato.csv", content)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestCSVParser_Parse_DecodesLatin1(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	p := parser.NewCSVParser(log, bankConfig(t, "banco-do-brasil"))

	// 0xEA is "ê" in ISO-8859-1
	content := []byte(bbHeader + "\n" + "15/01/2024,Transfer\xeancia,Pix,100,\"10,00\",Entrada\n")

	transactions, err := p.Parse(context.Background(), "extrato.csv", content)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	require.Equal(t, "Transferência", transactions[0].Entry)
}

func TestCSVParser_Parse_HeaderOnly(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	p := parser.NewCSVParser(log, bankConfig(t, "banco-do-brasil"))

	transactions, err := p.Parse(context.Background(), "extrato.csv", []byte(bbHeader+"\n"))
	require.NoError(t, err)
	require.Empty(t, transactions)

	transactions, err = p.Parse(context.Background(), "extrato.csv", nil)
	require.NoError(t, err)
	require.Empty(t, transactions)
}

func TestCSVParser_Supports(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	p := parser.NewCSVParser(log, bankConfig(t, "banco-do-brasil"))

	require.True(t, p.Supports("extrato_janeiro.csv"))
	require.True(t, p.Supports("Extrato-2024.CSV"))
	require.True(t, p.Supports("bb_fevereiro.csv"))
	require.False(t, p.Supports("itau.pdf"))
	require.False(t, p.Supports("extrato.txt"))
	require.False(t, p.Supports("random.csv"))
	require.False(t, p.Supports(""))
}
