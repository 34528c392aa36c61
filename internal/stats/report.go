package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	runewidth "github.com/mattn/go-runewidth"
)

// sampleWidth 片段列的最大显示宽度
const sampleWidth = 36

// Render 把统计报告渲染到writer
func Render(w io.Writer, report Report) {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(w, "翻译统计")
	title.Fprintln(w, strings.Repeat("=", 50))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendRows([]table.Row{
		{"文件数", report.Files},
		{"条目数", report.Entries},
		{"已翻译", report.Translated},
		{"失败", report.Failed},
		{"批次数", report.Batches},
		{"缓存命中", report.CacheHits},
		{"输入令牌", report.TokensIn},
		{"输出令牌", report.TokensOut},
		{"总耗时", formatDuration(report.Duration)},
	})
	t.Render()

	if len(report.StepDuration) > 0 {
		fmt.Fprintln(w)
		renderSteps(w, report.StepDuration)
	}

	if len(report.Samples) > 0 {
		fmt.Fprintln(w)
		renderSamples(w, report.Samples)
	}
}

// renderSteps 渲染各步骤耗时
func renderSteps(w io.Writer, steps map[string]time.Duration) {
	names := make([]string, 0, len(steps))
	for name := range steps {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"步骤", "耗时"})
	for _, name := range names {
		t.AppendRow(table.Row{name, formatDuration(steps[name])})
	}
	t.Render()
}

// renderSamples 渲染翻译片段，超宽内容按显示宽度截断
func renderSamples(w io.Writer, samples []Sample) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"原文", "译文"})
	for _, sample := range samples {
		t.AppendRow(table.Row{
			runewidth.Truncate(sample.Source, sampleWidth, "…"),
			runewidth.Truncate(sample.Translation, sampleWidth, "…"),
		})
	}
	t.Render()
}

// formatDuration 人类可读的时长
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", m, s)
}
