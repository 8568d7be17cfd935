package ingest

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"herss/internal/spotprice"
)

// PriceSeries holds the parsed contents of a price file: a single
// system-wide rest price plus one Euro/MWh value per timestep, broadcast to
// every node's Scenario.Price at load time (a node can later diverge from
// this via RiverSystem.SetPrice).
type PriceSeries struct {
	RestPrice float64
	Year, Month, Day, Hour []int
	Price                  []float64
}

// ReadPriceFile parses a price file: a RESTPRICE header line, a Date
// header line, then one YYYYMMDDHH + price row per timestep.
func ReadPriceFile(path string) (*PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newParseError(path, 0, fmt.Errorf("open price file: %w", err))
	}
	defer f.Close()

	lr := newLineReader(f)

	fields, err := lr.next()
	if err != nil {
		return nil, newParseError(path, 0, fmt.Errorf("missing RESTPRICE header: %w", err))
	}
	if fields[0] != "RESTPRICE" {
		return nil, newParseError(path, lr.lineNo, fmt.Errorf("expected RESTPRICE, got %q", fields[0]))
	}
	restPrice, err := parseField(fields, 1, lr.lineNo, "RESTPRICE value")
	if err != nil {
		return nil, err
	}

	fields, err = lr.next()
	if err != nil {
		return nil, newParseError(path, 0, fmt.Errorf("missing Date header: %w", err))
	}
	if fields[0] != "Date" {
		return nil, newParseError(path, lr.lineNo, fmt.Errorf("expected Date, got %q", fields[0]))
	}

	out := &PriceSeries{RestPrice: restPrice}
	for {
		fields, err = lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		date, perr := field(fields, 0, lr.lineNo, "price row date")
		if perr != nil {
			return nil, perr
		}
		priceStr, perr := field(fields, 1, lr.lineNo, "price row value")
		if perr != nil {
			return nil, perr
		}
		y, m, d, h, perr := parseDateHour(date)
		if perr != nil {
			return nil, fmt.Errorf("ingest: price file %s: line %d: %w", path, lr.lineNo, perr)
		}
		price, perr := strconv.ParseFloat(priceStr, 64)
		if perr != nil {
			return nil, fmt.Errorf("ingest: price file %s: line %d: bad price %q: %w", path, lr.lineNo, priceStr, perr)
		}
		out.Year = append(out.Year, y)
		out.Month = append(out.Month, m)
		out.Day = append(out.Day, d)
		out.Hour = append(out.Hour, h)
		out.Price = append(out.Price, price)
	}
	return out, nil
}

// FromSpotPrice builds a PriceSeries from a fetched spot price feed,
// letting a run substitute a live market feed for a static price file
// without touching anything downstream of PriceSeries.
func FromSpotPrice(intervals []spotprice.Interval, restPrice float64) *PriceSeries {
	year, month, day, hour, price := spotprice.ToPriceSeries(intervals, restPrice)
	return &PriceSeries{RestPrice: restPrice, Year: year, Month: month, Day: day, Hour: hour, Price: price}
}

func parseField(fields []string, i int, lineNo int, context string) (float64, error) {
	s, err := field(fields, i, lineNo, context)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("ingest: %s: line %d: bad float %q: %w", context, lineNo, s, err)
	}
	return v, nil
}
