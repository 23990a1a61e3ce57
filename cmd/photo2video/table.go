package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ivlev/photo2video/internal/engine"
	"github.com/ivlev/photo2video/internal/video"
)

// renderTable draws a two-column key/value table.
func renderTable(title string, rows [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func printReport(w io.Writer, res engine.Result) {
	rows := [][2]string{
		{"Output", res.OutputPath},
		{"Source", fmt.Sprintf("%dx%d", res.SourceWidth, res.SourceHeight)},
		{"Frames", humanize.Comma(int64(res.Frames))},
		{"Size", humanize.Bytes(uint64(res.Bytes))},
		{"Decode", seconds(res.DecodeTime)},
		{"Render + encode", seconds(res.EncodeTime)},
		{"Total", seconds(res.TotalTime)},
		{"Effective FPS", fmt.Sprintf("%.2f", res.FPS)},
	}
	if res.RSS > 0 {
		rows = append(rows, [2]string{"Resident memory", humanize.Bytes(res.RSS)})
	}
	fmt.Fprintln(w, renderTable("PERFORMANCE REPORT", rows))
}

func printProbe(w io.Writer, path string, info video.ProbeInfo) {
	audio := "no"
	if info.HasAudio {
		audio = "yes"
	}
	fmt.Fprintln(w, renderTable(path, [][2]string{
		{"Resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{"Codec", info.Codec},
		{"Frame rate", fmt.Sprintf("%.2f", info.FrameRate)},
		{"Frames", humanize.Comma(int64(info.Frames))},
		{"Duration", fmt.Sprintf("%.2fs", info.Duration)},
		{"Audio", audio},
		{"Size", humanize.Bytes(uint64(info.Size))},
	}))
}
