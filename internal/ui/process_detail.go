package ui

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/googlesky/bandhawk/internal/model"
)

// processDetail manages the detail view for a single process.
type processDetail struct {
	pid        uint32
	cursor     int
	offset     int
	viewHeight int
	showDNS    bool // toggle between hostname and raw IP
}

func newProcessDetail(pid uint32) processDetail {
	return processDetail{pid: pid, showDNS: true}
}

func (d *processDetail) moveUp() {
	if d.cursor > 0 {
		d.cursor--
	}
}

func (d *processDetail) moveDown(maxIdx int) {
	if maxIdx < 0 {
		return
	}
	if d.cursor < maxIdx {
		d.cursor++
	}
}

func (d *processDetail) pageUp() {
	d.cursor -= d.viewHeight / 2
	if d.cursor < 0 {
		d.cursor = 0
	}
}

func (d *processDetail) pageDown(maxIdx int) {
	if maxIdx < 0 {
		return
	}
	d.cursor += d.viewHeight / 2
	if d.cursor > maxIdx {
		d.cursor = maxIdx
	}
}

func (d *processDetail) toggleDNS() {
	d.showDNS = !d.showDNS
}

// connColumnLayout computes dynamic column widths based on terminal width.
type connColumnLayout struct {
	protoW  int
	localW  int
	remoteW int
	stateW  int
	svcW    int
	ageW    int
	upW     int
	downW   int
}

func computeConnLayout(width int) connColumnLayout {
	const (
		protoW = 5
		stateW = 10 // shortened to fit badges
		svcW   = 6
		ageW   = 7
		upW    = 10
		downW  = 10
		fixed  = protoW + stateW + svcW + ageW + upW + downW + 7 + 2 // 7 gaps between 8 columns + 2 indent
	)

	remaining := width - fixed
	if remaining < 30 {
		remaining = 30
	}

	// REMOTE gets 60%, LOCAL gets 40% (remote hosts are typically longer)
	remoteW := remaining * 60 / 100
	localW := remaining - remoteW

	return connColumnLayout{
		protoW:  protoW,
		localW:  localW,
		remoteW: remoteW,
		stateW:  stateW,
		svcW:    svcW,
		ageW:    ageW,
		upW:     upW,
		downW:   downW,
	}
}

// connBadge returns a compact badge with icon for a connection's activity state.
func connBadge(c *model.ConnectionView) string {
	if c.Listening {
		return "● LISTEN"
	}
	return "⚡ ACTIVE"
}

func connBadgeStyle(c *model.ConnectionView) lipgloss.Style {
	if c.Listening {
		return styleStateListen
	}
	return styleStateEstablished
}

func (d *processDetail) render(proc *model.ProcessSummary, conns []model.ConnectionView, listens []model.ListenPortEntry, width, height int) string {
	if proc == nil {
		return styleDetailLabel.Render("  Process not found")
	}

	d.viewHeight = height
	lay := computeConnLayout(width)

	var lines []string

	// Process info header
	infoLine := lipgloss.JoinHorizontal(lipgloss.Center,
		styleTitle.Render(fmt.Sprintf(" %s", proc.Name)),
		styleDetailLabel.Render(fmt.Sprintf("  PID: %d", proc.PID)),
		"  ",
		styleHeaderUp.Render("▲ "+FormatRate(float64(proc.Up))),
		"  ",
		styleHeaderDown.Render("▼ "+FormatRate(float64(proc.Down))),
	)
	lines = append(lines, infoLine)

	// Cmdline
	if proc.Cmdline != "" {
		cmdline := Truncate(proc.Cmdline, width-4)
		lines = append(lines, styleDetailLabel.Render("  "+cmdline))
	}

	lines = append(lines, styleBorder.Render(strings.Repeat("─", width)))

	// Listening ports
	if len(listens) > 0 {
		lines = append(lines, styleTitle.Render("  Listening Ports"))
		for _, lp := range listens {
			addr := "*"
			if lp.Addr.Addr().IsValid() && !lp.Addr.Addr().IsUnspecified() {
				addr = lp.Addr.Addr().String()
			}
			lines = append(lines,
				"  "+styleStateListen.Render(fmt.Sprintf("  ● %s %s:%d", lp.Proto, addr, lp.Addr.Port())),
			)
		}
		lines = append(lines, "")
	}

	// Connections table
	if len(conns) > 0 {
		lines = append(lines, styleTitle.Render(
			fmt.Sprintf("  Connections (%d)", len(conns)),
		))

		// Connection table header with dynamic widths
		connHeader := fmt.Sprintf("  %-*s %-*s %-*s %-*s %-*s %*s %*s %*s",
			lay.protoW, "PROTO",
			lay.localW, "LOCAL",
			lay.remoteW, "REMOTE",
			lay.stateW, "STATE",
			lay.svcW, "SVC",
			lay.ageW, "AGE",
			lay.upW, "UP/s",
			lay.downW, "DOWN/s")
		lines = append(lines, styleTableHeader.Render(connHeader))

		// Calculate scroll
		headerLines := len(lines)
		availRows := height - headerLines - 1
		if availRows < 1 {
			availRows = 1
		}

		maxIdx := len(conns) - 1
		if d.cursor > maxIdx {
			d.cursor = maxIdx
		}
		if d.cursor < 0 {
			d.cursor = 0
		}

		if d.cursor < d.offset {
			d.offset = d.cursor
		}
		if d.cursor >= d.offset+availRows {
			d.offset = d.cursor - availRows + 1
		}

		end := d.offset + availRows
		if end > len(conns) {
			end = len(conns)
		}

		for i := d.offset; i < end; i++ {
			c := &conns[i]
			selected := i == d.cursor

			proto := c.Key.Proto.String()
			local := formatConnAddr(c.Key.Local)
			remote := d.formatRemote(c)
			state := connBadge(c)
			svc := Truncate(c.Service, lay.svcW)
			age := FormatAge(c.Age)
			up := FormatRate(float64(c.Up))
			down := FormatRate(float64(c.Down))

			local = Truncate(local, lay.localW)
			remote = Truncate(remote, lay.remoteW)

			stateStyle := connBadgeStyle(c)

			indicator := "  "
			rowStyle := styleTableRow
			if selected {
				indicator = "▸ "
				rowStyle = styleTableRowSelected
			}

			row := lipgloss.JoinHorizontal(lipgloss.Top,
				rowStyle.Render(indicator),
				rowStyle.Render(fmt.Sprintf("%-*s ", lay.protoW, proto)),
				rowStyle.Render(fmt.Sprintf("%-*s ", lay.localW, local)),
				rowStyle.Render(fmt.Sprintf("%-*s ", lay.remoteW, remote)),
				stateStyle.Render(fmt.Sprintf("%-*s ", lay.stateW, state)),
				styleDetailLabel.Render(fmt.Sprintf("%-*s ", lay.svcW, svc)),
				styleDetailLabel.Render(fmt.Sprintf("%*s ", lay.ageW, age)),
				styleUpRate.Render(fmt.Sprintf("%*s ", lay.upW, up)),
				styleDownRate.Render(fmt.Sprintf("%*s", lay.downW, down)),
			)

			if selected {
				rowWidth := lipgloss.Width(row)
				if rowWidth < width {
					row += rowStyle.Render(strings.Repeat(" ", width-rowWidth))
				}
			}

			lines = append(lines, row)
		}
	} else if len(listens) == 0 {
		lines = append(lines, styleDetailLabel.Render("  No active connections"))
	}

	return strings.Join(lines, "\n")
}

// formatRemote formats the remote address, preferring hostname when showDNS is on.
func (d *processDetail) formatRemote(c *model.ConnectionView) string {
	if d.showDNS && c.RemoteHost != "" {
		return fmt.Sprintf("%s:%d", c.RemoteHost, c.Key.Remote.Port())
	}
	return formatConnAddr(c.Key.Remote)
}

func formatConnAddr(ap netip.AddrPort) string {
	addr := ap.Addr()
	if !addr.IsValid() || addr.IsUnspecified() {
		return fmt.Sprintf("*:%d", ap.Port())
	}
	if addr.Is4() || addr.Is4In6() {
		return fmt.Sprintf("%s:%d", addr, ap.Port())
	}
	return fmt.Sprintf("[%s]:%d", addr, ap.Port())
}
