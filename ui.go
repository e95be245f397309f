package main

import (
	"image"
	"image/color"
	"slices"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/config"
	"git.sr.ht/~whereswaldon/streamviz/render"
	"github.com/dustin/go-humanize"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

const tabSummary = "summary"

var tabNames = map[string]string{
	"line":     "Line",
	"bar":      "Bar",
	"scatter":  "Scatter",
	"heatmap":  "Heatmap",
	tabSummary: "Summary",
}

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	ws   WindowState
	expl *explorer.Explorer
	cfg  config.Config

	chart      *ChartView
	summary    *SummaryView
	tab        widget.Enum
	streamBtn  widget.Clickable
	openBtn    widget.Clickable
	sourceErr  string
	hasSamples bool

	th           *material.Theme
	statusStream *stream.Stream[backend.Status]
	status       backend.Status
}

func NewUI(ws WindowState, expl *explorer.Explorer, cfg config.Config) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	ui := &UI{
		ws:           ws,
		th:           th,
		expl:         expl,
		cfg:          cfg,
		tab:          widget.Enum{Value: cfg.Chart},
		statusStream: stream.New(ws.Controller, ws.Bundle.Datasource.Status),
	}
	ui.chart = NewChartView(ws, expl, cfg)
	ui.chart.SetKind(cfg.Chart)
	ui.summary = NewSummaryView(ws)
	return ui
}

// Close stops any animation owned by the UI.
func (ui *UI) Close() {
	ui.chart.Stop()
}

// Update the state of the UI in response to events.
func (ui *UI) Update(gtx C) {
	ui.statusStream.ReadInto(gtx, &ui.status, backend.Status{})
	ui.sourceErr = ""
	if ui.status.Err != nil {
		ui.sourceErr = ui.status.Err.Error()
	}
	if ui.tab.Update(gtx) && ui.tab.Value != tabSummary {
		ui.chart.SetKind(ui.tab.Value)
	}
	if ui.streamBtn.Clicked(gtx) {
		ds := ui.ws.Bundle.Datasource
		if ds.Streaming() {
			ds.StopStreaming()
		} else {
			ds.StartStreaming(ui.cfg.Initial)
		}
	}
	if ui.openBtn.Clicked(gtx) {
		go loadChosenTrace(ui.ws.Bundle.Datasource, ui.expl)
	}
	if !ui.hasSamples {
		ui.hasSamples = ui.ws.Pipeline.Buffer().Len() > 0
	}
}

type TabStyle struct {
	state  *widget.Enum
	label  material.LabelStyle
	border widget.Border
	inset  layout.Inset
	value  string
	fill   color.NRGBA
}

func Tab(th *material.Theme, state *widget.Enum, value, display string) TabStyle {
	selected := state.Value == value
	ts := TabStyle{
		state: state,
		label: material.Body1(th, display),
		inset: layout.UniformInset(2),
		border: widget.Border{
			Width: 2,
			Color: th.ContrastBg,
		},
		value: value,
	}
	ts.label.Alignment = text.Middle
	if selected {
		ts.label.Color = th.ContrastFg
		ts.fill = th.ContrastBg
	}
	return ts
}

func (t TabStyle) Layout(gtx C) D {
	return t.inset.Layout(gtx, func(gtx C) D {
		return t.border.Layout(gtx, func(gtx C) D {
			return t.inset.Layout(gtx, func(gtx C) D {
				return t.state.Layout(gtx, t.value, func(gtx C) D {
					return layout.Background{}.Layout(gtx, func(gtx C) D {
						paint.FillShape(gtx.Ops, t.fill, clip.Rect{Max: gtx.Constraints.Min}.Op())
						return D{Size: gtx.Constraints.Min}
					}, t.label.Layout)
				})
			})
		})
	})
}

func (ui *UI) streamLabel() string {
	if ui.ws.Bundle.Datasource.Streaming() {
		return "Stop Stream"
	}
	return "Start Stream"
}

func (ui *UI) layoutStatus(gtx C) D {
	st := ui.status
	line := st.Mode.String()
	if st.Source != "" {
		line += " " + st.Source
	}
	if st.Mode == backend.ModeReplaying {
		line += ", " + humanize.Comma(int64(st.Ingested)) + " samples read"
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return layout.UniformInset(4).Layout(gtx, material.Button(ui.th, &ui.streamBtn, ui.streamLabel()).Layout)
		}),
		layout.Rigid(func(gtx C) D {
			return layout.UniformInset(4).Layout(gtx, material.Button(ui.th, &ui.openBtn, "Open Trace").Layout)
		}),
		layout.Flexed(1, func(gtx C) D {
			if len(ui.sourceErr) > 0 {
				l := material.Body1(ui.th, ui.sourceErr)
				l.Color = color.NRGBA{R: 150, A: 255}
				return layout.UniformInset(4).Layout(gtx, l.Layout)
			}
			return layout.UniformInset(4).Layout(gtx, material.Body2(ui.th, line).Layout)
		}),
	)
}

func (ui *UI) layoutMainArea(gtx C) D {
	values := append(slices.Clone(render.Types), tabSummary)
	tabs := make([]layout.FlexChild, 0, len(values))
	for _, value := range values {
		tabs = append(tabs, layout.Flexed(1, Tab(ui.th, &ui.tab, value, tabNames[value]).Layout))
	}
	return layout.Flex{
		Axis: layout.Vertical,
	}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return layout.Flex{}.Layout(gtx, tabs...)
		}),
		layout.Rigid(ui.layoutStatus),
		layout.Flexed(1, func(gtx C) D {
			if ui.tab.Value == tabSummary {
				return ui.summary.Layout(gtx, ui.th)
			}
			return ui.chart.Layout(gtx, ui.th)
		}),
	)
}

func (ui *UI) layoutStartScreen(gtx C) D {
	l := material.Body1(ui.th, "No data yet.")
	return layout.Flex{
		Axis:      layout.Vertical,
		Alignment: layout.Middle,
		Spacing:   layout.SpaceAround,
	}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return l.Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Button(ui.th, &ui.streamBtn, ui.streamLabel()).Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Button(ui.th, &ui.openBtn, "Open Existing Trace").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Body2(ui.th, ui.sourceErr).Layout(gtx)
		}),
	)
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	if ui.hasSamples {
		return ui.layoutMainArea(gtx)
	}
	return ui.layoutStartScreen(gtx)
}
