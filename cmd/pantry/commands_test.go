package main

import (
	"Pantry-Ledger/domain"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayFlag(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)

	got, err := parseDayFlag("2026-02-12", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 12, 0, 0, 0, 0, loc), got)

	got, err = parseDayFlag("", loc)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseDayFlag("12/02/2026", loc)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var s domain.ImportSummary
	s.Add(domain.ReceiptImportResult{ReceiptID: "R-1", StoreName: "store", Status: domain.ImportStatusImported, Inserted: 3, FoodItems: 2, NonFoodItems: 1})
	s.Add(domain.ReceiptImportResult{ReceiptID: "R-2", Status: domain.ImportStatusFailed, Error: "receipt not found"})

	var buf bytes.Buffer
	printSummary(&buf, s)

	out := buf.String()
	assert.Contains(t, out, "R-1")
	assert.Contains(t, out, "receipt not found")
	assert.Contains(t, out, "imported 1, duplicates 0, empty 0, failed 1")
	assert.Contains(t, out, "items 3 (food 2, non-food 1)")
}

func TestIssueToken(t *testing.T) {
	t.Setenv("PANTRY_CONFIG", "does-not-exist.yaml")
	t.Setenv("JWT_SECRET", "s3cret")
	tokenSubject, tokenTTL = "cron", 2

	var buf bytes.Buffer
	require.NoError(t, issueToken(context.Background(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 2, strings.Count(lines[0], "."))
	assert.True(t, strings.HasPrefix(lines[1], "# expires "))
}

func TestIssueToken_Validation(t *testing.T) {
	t.Setenv("PANTRY_CONFIG", "does-not-exist.yaml")
	t.Setenv("JWT_SECRET", "s3cret")
	tokenSubject, tokenTTL = "", 24

	err := issueToken(context.Background(), &bytes.Buffer{})
	assert.ErrorContains(t, err, domain.MessageFailedIssueToken)
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "import", "stock", "expiring", "consume", "expire", "notify", "token"} {
		assert.True(t, names[want], want)
	}
}
