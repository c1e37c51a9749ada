package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/merge"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/pcb"
)

// NetTable prints one row per net with its class and connection counts.
func NetTable(w io.Writer, title string, infos []pcb.NetInfo) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedText).
		Headers("#", "NET", "CLASS", "PADS", "TRACKS", "VIAS", "ZONES").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return Header
			case col == 1 || col == 2:
				return Cell
			}
			return NumberCell
		})

	for _, info := range infos {
		name := info.Net.Name
		if name == pcb.UnconnectedNet {
			name = MutedText.Render("(unconnected)")
		}
		t.Row(
			strconv.Itoa(info.Net.Number),
			name,
			info.Class,
			strconv.Itoa(info.Pads),
			strconv.Itoa(info.Tracks),
			strconv.Itoa(info.Vias),
			strconv.Itoa(info.Zones),
		)
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n", Title.Render(title), t.Render())
	return err
}

// MergeSummary prints what a merge added to the base board.
func MergeSummary(w io.Writer, res *merge.Result) error {
	lines := []string{Success.Render("merge complete")}

	if len(res.NetsAdded) > 0 {
		lines = append(lines, Subtitle.Render(fmt.Sprintf("%d nets added", len(res.NetsAdded))))
		for _, n := range res.NetsAdded {
			lines = append(lines, fmt.Sprintf("%s %d %s", Bullet, n.Number, n.Name))
		}
	}

	keys := make([]string, 0, len(res.Merged))
	for k := range res.Merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		lines = append(lines, Subtitle.Render("elements copied"))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s %-10s %d", Bullet, k, res.Merged[k]))
		}
	}

	if res.LocalRenamed > 0 {
		lines = append(lines, fmt.Sprintf("%d local nets prefixed", res.LocalRenamed))
	}
	if res.PathsRewritten > 0 || len(res.UnmatchedPaths) > 0 {
		lines = append(lines, fmt.Sprintf("%d footprint paths rewritten", res.PathsRewritten))
	}
	for _, p := range res.UnmatchedPaths {
		lines = append(lines, WarningMsg.Render(fmt.Sprintf("  path not rewritten: %s", p)))
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, lines...))
	return err
}

// Failure prints an error, listing every accumulated problem on its own
// line.
func Failure(w io.Writer, err error) {
	problems := kerrors.ProblemsOf(err)
	if len(problems) == 0 {
		fmt.Fprintln(w, ErrorMsg.Render("error:"), err)
		return
	}

	head := string(kerrors.KindOf(err))
	var e *kerrors.Error
	if errors.As(err, &e) {
		if e.Op != "" {
			head = e.Op + ": " + head
		}
		if e.Err != nil {
			head += ": " + e.Err.Error()
		}
	}
	if len(problems) == 1 {
		fmt.Fprintln(w, ErrorMsg.Render(fmt.Sprintf("error: %s: %s", head, problems[0])))
		return
	}
	fmt.Fprintln(w, ErrorMsg.Render(fmt.Sprintf("error: %s (%d problems)", head, len(problems))))
	for _, p := range problems {
		fmt.Fprintf(w, "%s %s\n", Bullet, p)
	}
}

// Count prints a one-line result such as "3 vias changed".
func Count(w io.Writer, n int, what string) {
	fmt.Fprintln(w, Success.Render(fmt.Sprintf("%d %s", n, what)))
}

// List prints a titled list of items.
func List(w io.Writer, title string, items []string) {
	fmt.Fprintln(w, Title.Render(title))
	for _, it := range items {
		fmt.Fprintf(w, "%s %s\n", Bullet, it)
	}
}
