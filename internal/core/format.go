package core

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/datacleanser/internal/api"
)

// StatField is one labelled value on a column card.
type StatField struct {
	Label string
	Value string
}

// StatCard is the display form of one column statistic.
type StatCard struct {
	Column string
	Kind   api.Kind
	Fields []StatField
}

// StatCards builds one card per column. Optional statistics appear only
// when the backend reported them.
func StatCards(profile []api.ColumnStat) []StatCard {
	cards := make([]StatCard, 0, len(profile))
	for _, c := range profile {
		card := StatCard{
			Column: c.Column,
			Kind:   c.Kind(),
			Fields: []StatField{
				{"Type", c.Type},
				{"Missing Values", fmt.Sprintf("%.1f%%", c.MissingPct)},
				{"Unique Values", humanize.Comma(int64(c.UniqueCount))},
			},
		}

		if n, ok := c.Numeric(); ok {
			card.Fields = appendStat(card.Fields, "Mean", n.Mean, fixed(2))
			card.Fields = appendStat(card.Fields, "Std Dev", n.Std, fixed(2))
			card.Fields = appendStat(card.Fields, "Min", n.Min, FormatNumber)
			card.Fields = appendStat(card.Fields, "Max", n.Max, FormatNumber)
		}
		if t, ok := c.Text(); ok {
			card.Fields = appendStat(card.Fields, "Min Length", t.MinLength, FormatNumber)
			card.Fields = appendStat(card.Fields, "Max Length", t.MaxLength, FormatNumber)
			card.Fields = appendStat(card.Fields, "Avg Length", t.AvgLength, fixed(1))
		}

		cards = append(cards, card)
	}
	return cards
}

func appendStat(fields []StatField, label string, v *float64, format func(float64) string) []StatField {
	if v == nil {
		return fields
	}
	return append(fields, StatField{label, format(*v)})
}

func fixed(prec int) func(float64) string {
	return func(v float64) string { return strconv.FormatFloat(v, 'f', prec, 64) }
}

// FormatNumber prints v in its shortest exact form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
