package components

import (
	"fmt"

	"github.com/evertras/bubble-table/table"

	"github.com/allbin/go-uartdma/internal/tui/styles"
)

// Stats is a snapshot of the session counters shown in the stats panel.
type Stats struct {
	TXBytes     int64
	RXBytes     int64
	TXTransfers int64
	TXErrors    int64
	RingUsed    int
	RingCap     int
}

// StatsPanel renders the session counters as a small static table.
type StatsPanel struct{}

func (StatsPanel) View(s Stats) string {
	ring := "n/a"
	if s.RingCap > 0 {
		ring = fmt.Sprintf("%d / %d", s.RingUsed, s.RingCap)
	}

	rows := []table.Row{
		table.NewRow(table.RowData{"metric": "TX bytes", "value": fmt.Sprintf("%d", s.TXBytes)}),
		table.NewRow(table.RowData{"metric": "TX transfers", "value": fmt.Sprintf("%d", s.TXTransfers)}),
		table.NewRow(table.RowData{"metric": "TX errors", "value": fmt.Sprintf("%d", s.TXErrors)}),
		table.NewRow(table.RowData{"metric": "RX bytes", "value": fmt.Sprintf("%d", s.RXBytes)}),
		table.NewRow(table.RowData{"metric": "Ring usage", "value": ring}),
	}

	t := table.New([]table.Column{
		table.NewColumn("metric", "Metric", 14),
		table.NewColumn("value", "Value", 14),
	}).WithRows(rows)

	return styles.StatsTitleStyle.Render("Session") + "\n" + t.View()
}
