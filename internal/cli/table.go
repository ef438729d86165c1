package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
)

const maxTargetWidth = 48

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(cols ...string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = text.FgHiCyan.Sprint(c)
	}
	return row
}

// renderFavorites prints favorites in the order given.
func renderFavorites(w io.Writer, favs []domain.Favorite, empty string) {
	if len(favs) == 0 {
		fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint(empty))
		return
	}

	t := newTable(w)
	t.AppendHeader(header("", "ID", "TYPE", "TARGET", "NAME", "APP", "USES", "LAST USED"))
	for _, f := range favs {
		pin := ""
		if f.IsPinned {
			pin = "📌"
		}
		t.AppendRow(table.Row{
			pin,
			f.ID,
			string(f.TokenType),
			truncate(f.Target, maxTargetWidth),
			f.Name,
			f.AppName,
			strconv.FormatInt(f.UseCount, 10),
			f.LastUsedAt.Local().Format(time.DateTime),
		})
	}
	t.Render()
}

// renderPinResult prints the outcome of pin and unpin commands.
func renderPinResult(w io.Writer, action string, res domain.PinResult, pinned int) {
	if !res.Success {
		fmt.Fprintf(w, "%s %s: %s\n", text.FgRed.Sprint("✗"), action, res.Message())
		return
	}
	fmt.Fprintf(w, "%s %s %s (%d/%d pinned)\n",
		text.FgGreen.Sprint("✓"), action, res.ID, pinned, domain.MaxPinned)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
