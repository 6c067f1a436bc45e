// Package report renders HTML performance charts for recorded sessions using
// go-echarts.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ayusman/drishti/internal/store"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
)

// Render writes an HTML line chart of a session's performance samples: the
// smoothed FPS and the per-frame and per-transform times over the session's
// ticks.
func Render(w io.Writer, sess *store.Session, samples []store.PerfSample) error {
	ticks := make([]string, 0, len(samples))
	fps := make([]opts.LineData, 0, len(samples))
	frameMs := make([]opts.LineData, 0, len(samples))
	transformMs := make([]opts.LineData, 0, len(samples))
	fpsValues := make([]float64, 0, len(samples))

	for _, s := range samples {
		ticks = append(ticks, strconv.FormatInt(s.Tick, 10))
		fps = append(fps, opts.LineData{Value: s.FPS})
		frameMs = append(frameMs, opts.LineData{Value: s.FrameMs})
		transformMs = append(transformMs, opts.LineData{Value: s.TransformMs})
		fpsValues = append(fpsValues, s.FPS)
	}

	subtitle := fmt.Sprintf("started=%s ticks=%d processed=%d",
		sess.StartedAt.Format("2006-01-02 15:04:05"), sess.Ticks, sess.Processed)
	if len(fpsValues) > 0 {
		subtitle += fmt.Sprintf(" mean_fps=%.1f", stat.Mean(fpsValues, nil))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Session Performance",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Session %s", sess.ID),
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(ticks).
		AddSeries("fps", fps).
		AddSeries("frame ms", frameMs).
		AddSeries("transform ms", transformMs)

	return line.Render(w)
}
