package ledger

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type HistoryRenderer interface {
	RenderHistory(entries []Entry) (string, error)
}

type CsvHistoryRendererImpl struct {
}

func NewCsvHistoryRenderer() *CsvHistoryRendererImpl {
	return &CsvHistoryRendererImpl{}
}

var csvHeader = []string{
	"Period", "Start", "End", "Entries", "Hours", "Gross",
	"Carry in", "Actual", "Paid", "Carry out", "Limit", "Level",
}

// RenderHistory writes one row per entry in the given order followed by a totals row.
func (t *CsvHistoryRendererImpl) RenderHistory(entries []Entry) (string, error) {
	data := make([][]string, 0, len(entries)+2)
	data = append(data, csvHeader)

	totalCount := 0
	var totalMinutes int
	gross := decimal.Zero
	paid := decimal.Zero
	for _, e := range entries {
		data = append(data, []string{
			e.Period.Key.String(),
			e.Period.Start.Format(billing_period.DateLayout),
			e.Period.End.Format(billing_period.DateLayout),
			strconv.Itoa(e.EntryCount),
			e.TotalHours.StringFixed(2),
			e.GrossEarnings.StringFixed(2),
			e.CarryIn.StringFixed(2),
			e.ActualEarnings.StringFixed(2),
			e.PaidEarnings.StringFixed(2),
			e.CarryOut.StringFixed(2),
			e.Limit.StringFixed(2),
			string(e.WarningLevel),
		})
		totalCount += e.EntryCount
		totalMinutes += e.TotalMinutes
		gross = gross.Add(e.GrossEarnings)
		paid = paid.Add(e.PaidEarnings)
	}
	data = append(data, []string{
		"Total", "", "",
		strconv.Itoa(totalCount),
		decimal.NewFromInt(int64(totalMinutes)).DivRound(decimal.NewFromInt(60), 2).StringFixed(2),
		gross.StringFixed(2),
		"", "",
		paid.StringFixed(2),
		"", "", "",
	})

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
