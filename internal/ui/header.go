package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/googlesky/bandhawk/internal/model"
)

func renderHeader(snap model.Snapshot, width int, paused bool, activeIface string, cumulativeMode bool, alertText string, playbackInfo string) string {
	title := styleTitle.Render("bandhawk")
	timestamp := styleDetailLabel.Render(snap.Timestamp.Format("15:04:05"))

	pauseTag := ""
	if paused {
		pauseTag = stylePaused.Render(" PAUSED ")
	}

	playbackTag := ""
	if playbackInfo != "" {
		playbackTag = " " + styleFooterKey.Render(playbackInfo)
	}

	procCount := styleHeaderValue.Render(fmt.Sprintf("%d processes", len(snap.Processes)))

	ifaceTag := styleFooterKey.Render("["+activeIface+"]") + " "

	var totalUp, totalDown uint64
	if cumulativeMode {
		for i := range snap.Processes {
			totalUp += snap.Processes[i].CumUp
			totalDown += snap.Processes[i].CumDown
		}
	} else {
		totalUp, totalDown = snap.TotalUp, snap.TotalDown
	}

	totalHist := make([]float64, len(snap.TotalHistory))
	for i, s := range snap.TotalHistory {
		totalHist[i] = s.Total()
	}
	trendArrow := TrendArrow(totalHist)
	trendStyled := ""
	switch trendArrow {
	case "↑":
		trendStyled = styleHeaderUp.Render(" ↑")
	case "↓":
		trendStyled = styleHeaderDown.Render(" ↓")
	case "→":
		trendStyled = styleDetailLabel.Render(" →")
	}

	upLabel := styleHeaderUp.Render("▲ " + FormatRate(float64(totalUp)))
	downLabel := styleHeaderDown.Render("▼ "+FormatRate(float64(totalDown))) + trendStyled

	alertTag := ""
	if alertText != "" {
		alertTag = styleAlertTag.Render(alertText)
	}

	left := lipgloss.JoinHorizontal(lipgloss.Center,
		title, "  ", timestamp, pauseTag, playbackTag, "  ", procCount,
	)
	right := lipgloss.JoinHorizontal(lipgloss.Center,
		alertTag, ifaceTag, upLabel, "  ", downLabel,
	)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	headerLine := left + strings.Repeat(" ", gap) + right

	sparklineLine := ""
	if len(totalHist) > 0 {
		sparkW := 30
		if sparkW > width-4 {
			sparkW = width - 4
		}
		if sparkW > 0 {
			sparkline := Sparkline(totalHist, sparkW)
			sparklineLine = "  " + styleSparklineActive.Render(sparkline)
		}
	}

	if snap.TotalDropped > 0 {
		dropTag := styleDetailLabel.Render(fmt.Sprintf("  dropped: %d", snap.TotalDropped))
		if sparklineLine != "" {
			sparklineLine += dropTag
		} else {
			sparklineLine = dropTag
		}
	}

	separator := styleBorder.Render(strings.Repeat("─", width))

	var parts []string
	parts = append(parts, headerLine)
	if sparklineLine != "" {
		parts = append(parts, sparklineLine)
	}
	parts = append(parts, separator)

	return strings.Join(parts, "\n")
}
