// Package funding extracts structured deal records from free text using a
// small table of pattern rules. The extraction is heuristic by design: new
// phrasings are added as table entries, not control flow.
package funding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record is a structured funding event inferred from text.
type Record struct {
	StartupName string    `json:"startup_name"`
	AmountUSD   float64   `json:"amount_usd"`
	SourceID    string    `json:"source_id"`
	DealDate    time.Time `json:"deal_date"`
	RawMatch    string    `json:"raw_match"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Conversion encodes approximate unit-to-USD-millions factors. Crore and
// lakh are INR units; the factors assume a fixed exchange rate and should
// come from configuration, not a live FX feed.
type Conversion struct {
	CroreToUSDMillions float64
	LakhToUSDMillions  float64
}

// DefaultConversion matches roughly 1 USD = 83 INR.
var DefaultConversion = Conversion{
	CroreToUSDMillions: 12,
	LakhToUSDMillions:  0.012,
}

// MaxRecordsPerRun caps emitted records to bound downstream write volume
// from a single crawl or ingest pass.
const MaxRecordsPerRun = 50

// A pattern pairs a compiled regex with the roles of its capture groups.
// entityGroup and amountGroup are 1-based submatch indices; unitGroup
// follows amountGroup.
type pattern struct {
	re          *regexp.Regexp
	entityGroup int
	amountGroup int
	unitGroup   int
}

var patterns = []pattern{
	// "Acme Robotics raised $5 million"
	{
		re:          regexp.MustCompile(`(?i)(\w+(?:\s+\w+){0,3})\s+(?:raises?|raised|secures?|secured|gets?|got)\s+\$?([\d.]+)\s*(million|mn|m|crore|cr|billion|bn|b|lakh|lac|l)\b`),
		entityGroup: 1, amountGroup: 2, unitGroup: 3,
	},
	// "$5 million funding for Acme Robotics"
	{
		re:          regexp.MustCompile(`(?i)\$?([\d.]+)\s*(million|mn|m|crore|cr|billion|bn|b)\s+(?:funding|investment|round)\s+(?:for|in|by|to)\s+(\w+(?:\s+\w+){0,3})`),
		entityGroup: 3, amountGroup: 1, unitGroup: 2,
	},
}

// stopwords are entity captures that arise from boilerplate phrasing, not
// real startup names.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true, "it": true,
}

// Extract scans text for funding statements and returns normalized records.
// Malformed intermediate matches are skipped, never raised. Within one run
// no two records share the same (lower-cased name, amount) pair, and at most
// MaxRecordsPerRun records are emitted.
func Extract(content, sourceID string, conv Conversion) []Record {
	now := time.Now()
	seen := make(map[string]bool)
	var records []Record

	for _, p := range patterns {
		for _, match := range p.re.FindAllStringSubmatch(content, -1) {
			name := strings.TrimSpace(match[p.entityGroup])
			amount, err := strconv.ParseFloat(match[p.amountGroup], 64)
			if err != nil || name == "" {
				continue
			}

			if stopwords[strings.ToLower(name)] {
				continue
			}

			usd := NormalizeAmount(amount, match[p.unitGroup], conv)

			key := fmt.Sprintf("%s-%.0f", strings.ToLower(name), usd)
			if seen[key] {
				continue
			}
			seen[key] = true

			records = append(records, Record{
				StartupName: name,
				AmountUSD:   usd,
				SourceID:    sourceID,
				DealDate:    now,
				RawMatch:    match[0],
				ExtractedAt: now,
			})
		}
	}

	if len(records) > MaxRecordsPerRun {
		records = records[:MaxRecordsPerRun]
	}
	return records
}

// NormalizeAmount converts an (amount, unit) mention to absolute USD.
// Billions scale to thousands of millions; crore and lakh use the configured
// INR factors; anything else is treated as already in millions.
func NormalizeAmount(amount float64, unit string, conv Conversion) float64 {
	millions := amount
	switch strings.ToLower(unit) {
	case "b", "bn", "billion":
		millions = amount * 1000
	case "cr", "crore":
		millions = amount * conv.CroreToUSDMillions
	case "l", "lac", "lakh":
		millions = amount * conv.LakhToUSDMillions
	}
	return millions * 1e6
}
