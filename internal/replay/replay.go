// Package replay feeds a worker from a newline-delimited CSV trade log.
// It is an external collaborator: the core engine never imports it, and
// in turn it depends on nothing but the standard library,
// internal/fixedpoint's lossy float conversion, and internal/validate's
// pair-id check.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mas-avi/candlestream/internal/fixedpoint"
	"github.com/mas-avi/candlestream/internal/validate"
)

// OnTradeFunc matches worker.Worker.OnTrade's signature, without importing
// the worker package (keeping replay a standalone, optional collaborator).
type OnTradeFunc func(pairID string, timestamp uint64, price, baseAmount, quoteAmount fixedpoint.Q)

// Stats summarizes one Replay run.
type Stats struct {
	LinesRead    int
	TradesFed    int
	ParseErrors  int
}

// Replay reads the `pair, unix_seconds, price, base, quote` CSV format
// from r, skipping blank and `#`-prefixed lines, and calls onTrade for
// each parsed line. A line that fails to parse is counted in
// Stats.ParseErrors and skipped rather than aborting the whole replay.
func Replay(r io.Reader, onTrade OnTradeFunc) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		stats.LinesRead++

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pairID, ts, price, base, quote, err := parseLine(line)
		if err != nil {
			stats.ParseErrors++
			continue
		}

		onTrade(pairID, ts, price, base, quote)
		stats.TradesFed++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("replay: read input: %w", err)
	}
	return stats, nil
}

func parseLine(line string) (pairID string, ts uint64, price, base, quote fixedpoint.Q, err error) {
	fields := strings.Split(line, ",")
	if len(fields) != 5 {
		return "", 0, 0, 0, 0, fmt.Errorf("replay: expected 5 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	pairID = fields[0]
	if err := validate.PairID(pairID); err != nil {
		return "", 0, 0, 0, 0, fmt.Errorf("replay: %w", err)
	}

	tsVal, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return "", 0, 0, 0, 0, fmt.Errorf("replay: parse timestamp %q: %w", fields[1], err)
	}

	priceVal, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return "", 0, 0, 0, 0, fmt.Errorf("replay: parse price %q: %w", fields[2], err)
	}
	baseVal, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return "", 0, 0, 0, 0, fmt.Errorf("replay: parse base amount %q: %w", fields[3], err)
	}
	quoteVal, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return "", 0, 0, 0, 0, fmt.Errorf("replay: parse quote amount %q: %w", fields[4], err)
	}

	return pairID, tsVal, fixedpoint.FromFloat64(priceVal), fixedpoint.FromFloat64(baseVal), fixedpoint.FromFloat64(quoteVal), nil
}
