package main

import (
	"image"
	"log"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/chart"
	"git.sr.ht/~whereswaldon/streamviz/config"
	"git.sr.ht/~whereswaldon/streamviz/render"
	"github.com/dustin/go-humanize"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/shiny/materialdesign/icons"
)

func mustIcon(data []byte) *widget.Icon {
	icon, _ := widget.NewIcon(data)
	return icon
}

var (
	pauseIcon = mustIcon(icons.AVPause)
	playIcon  = mustIcon(icons.AVPlayArrow)
	resetIcon = mustIcon(icons.NavigationRefresh)
	saveIcon  = mustIcon(icons.ContentSave)
	clearIcon = mustIcon(icons.ContentClear)
)

// ChartView shows the pipeline as one chart type. While playing, frames are
// rendered by a render.Loop into display lists that the UI goroutine replays.
// While paused, the frozen view is rendered directly during layout.
type ChartView struct {
	ws       WindowState
	expl     *explorer.Explorer
	cfg      config.Config
	kind     string
	renderer render.Renderer
	ctrl     *chart.Controller

	loop   render.Loop
	latest atomic.Pointer[render.DisplayList]

	// lock guards the inputs read by the loop goroutine.
	lock sync.Mutex
	in   chart.Interaction
	size chart.Point

	views  *stream.Stream[chart.View]
	view   chart.View
	paused bool
	frozen chart.View
	// pos is the last pointer position in Dp.
	pos chart.Point

	pauseBtn widget.Clickable
	resetBtn widget.Clickable
	saveBtn  widget.Clickable
	clearBtn widget.Clickable
	enabled  map[string]*widget.Bool
	keyTable component.GridState
}

func NewChartView(ws WindowState, expl *explorer.Explorer, cfg config.Config) *ChartView {
	c := &ChartView{
		ws:      ws,
		expl:    expl,
		cfg:     cfg,
		ctrl:    chart.NewController(),
		in:      chart.Idle(),
		views:   stream.New(ws.Controller, ws.Pipeline.Views),
		enabled: map[string]*widget.Bool{},
	}
	c.loop.FrameRate = cfg.FrameRate
	c.loop.AfterFrame = func(s render.Surface) {
		c.latest.Store(s.(*render.DisplayList))
		ws.Invalidate()
	}
	return c
}

// SetKind switches the chart type, restarting the animation if it is running.
func (c *ChartView) SetKind(kind string) {
	if kind == c.kind {
		return
	}
	cfg := c.cfg
	cfg.Chart = kind
	r, err := cfg.Renderer()
	if err != nil {
		log.Printf("failed switching chart: %v", err)
		return
	}
	c.kind = kind
	c.renderer = r
	c.ctrl.Leave()
	c.publish()
	if !c.paused {
		c.start()
	}
}

func (c *ChartView) start() {
	c.loop.Start(c.ws.Ctx, c.target, c.renderer, func() render.Frame {
		return c.frame(c.ws.Pipeline.View())
	})
}

// Stop halts the animation.
func (c *ChartView) Stop() {
	c.loop.Stop()
}

func (c *ChartView) target() render.Surface {
	c.lock.Lock()
	defer c.lock.Unlock()
	return render.NewDisplayList(c.size)
}

func (c *ChartView) frame(v chart.View) render.Frame {
	c.lock.Lock()
	in, size := c.in, c.size
	c.lock.Unlock()
	return render.NewFrame(v, chart.Dims(size.X, size.Y), in)
}

// publish hands the interaction state to the loop goroutine.
func (c *ChartView) publish() {
	st := c.ctrl.State()
	c.lock.Lock()
	c.in = st
	c.lock.Unlock()
}

// hoverable reports whether the chart draws hover feedback in data
// coordinates.
func (c *ChartView) hoverable() bool {
	return c.kind == "line" || c.kind == "scatter"
}

func (c *ChartView) current() chart.View {
	if c.paused {
		return c.frozen
	}
	return c.view
}

func (c *ChartView) hover() {
	if !c.hoverable() {
		return
	}
	c.lock.Lock()
	size := c.size
	c.lock.Unlock()
	v := c.current()
	c.ctrl.Move(c.pos, v.Bounds, chart.Dims(size.X, size.Y), v.Samples)
}

func (c *ChartView) Update(gtx C) {
	c.views.ReadInto(gtx, &c.view, chart.View{})
	c.updateLegend(gtx)
	if c.pauseBtn.Clicked(gtx) {
		c.paused = !c.paused
		if c.paused {
			c.loop.Stop()
			c.frozen = c.ws.Pipeline.View()
		} else {
			c.start()
		}
	}
	if c.resetBtn.Clicked(gtx) {
		c.ctrl.Reset()
	}
	if c.clearBtn.Clicked(gtx) {
		c.ws.Pipeline.Clear()
		c.ctrl.Leave()
	}
	if c.saveBtn.Clicked(gtx) {
		go c.save(c.current())
	}
	density := float64(gtx.Metric.PxPerDp)
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  c,
			Kinds:   pointer.Enter | pointer.Leave | pointer.Move | pointer.Scroll | pointer.Cancel,
			ScrollY: pointer.ScrollRange{Min: math.MinInt32, Max: math.MaxInt32},
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		c.pos = chart.Pt(float64(e.Position.X)/density, float64(e.Position.Y)/density)
		switch e.Kind {
		case pointer.Enter, pointer.Move:
			c.hover()
		case pointer.Leave, pointer.Cancel:
			c.ctrl.Leave()
		case pointer.Scroll:
			c.ctrl.Wheel(c.pos, float64(e.Scroll.Y))
			c.hover()
		}
	}
	c.publish()
}

func (c *ChartView) updateLegend(gtx C) {
	changed := false
	for _, cat := range c.view.Categories {
		b, ok := c.enabled[cat]
		if !ok {
			b = &widget.Bool{Value: true}
			c.enabled[cat] = b
		}
		if b.Update(gtx) {
			changed = true
		}
	}
	if !changed {
		return
	}
	var selected []string
	for _, cat := range c.view.Categories {
		if c.enabled[cat].Value {
			selected = append(selected, cat)
		}
	}
	spec := c.ws.Pipeline.Filter()
	switch {
	case len(selected) == 0:
		// An empty category set shows everything. Make the toggles agree.
		for _, b := range c.enabled {
			b.Value = true
		}
		spec.Categories = nil
	case len(selected) == len(c.view.Categories):
		spec.Categories = nil
	default:
		spec = spec.WithCategories(selected...)
	}
	c.ws.Pipeline.SetFilter(spec)
	if c.paused {
		c.frozen = c.ws.Pipeline.View()
	}
}

// save renders v to a PNG chosen by the user. It blocks on the file dialog
// and must not run on the UI goroutine.
func (c *ChartView) save(v chart.View) {
	out, err := c.expl.CreateFile("chart.png")
	if err != nil {
		log.Printf("failed choosing snapshot file: %v", err)
		return
	}
	c.lock.Lock()
	in, size := c.in, c.size
	c.lock.Unlock()
	s := render.NewImageSurface(size.X, size.Y, c.cfg.DPR)
	render.Render(s, c.renderer, render.NewFrame(v, chart.Dims(size.X, size.Y), in))
	if err := s.WritePNG(out); err != nil {
		log.Printf("failed saving snapshot: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Printf("failed closing snapshot: %v", err)
	}
}

func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	call := macro.Stop()
	return dims, call
}

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

func floor[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Floor(float64(a)))
}

func (c *ChartView) Layout(gtx C, th *material.Theme) D {
	c.Update(gtx)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return c.layoutToolbar(gtx, th)
		}),
		layout.Flexed(1, func(gtx C) D {
			return c.layoutPlot(gtx, th)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(160))
			return c.layoutLegend(gtx, th)
		}),
	)
}

func iconButton(th *material.Theme, btn *widget.Clickable, icon *widget.Icon) layout.Widget {
	return func(gtx C) D {
		return material.Clickable(gtx, btn, func(gtx C) D {
			return layout.UniformInset(6).Layout(gtx, func(gtx C) D {
				gtx.Constraints = layout.Exact(image.Pt(gtx.Dp(20), gtx.Dp(20)))
				return icon.Layout(gtx, th.Fg)
			})
		})
	}
}

func (c *ChartView) layoutToolbar(gtx C, th *material.Theme) D {
	icon := pauseIcon
	if c.paused {
		icon = playIcon
	}
	v := c.current()
	info := humanize.Comma(int64(len(v.Samples))) + " of " + humanize.Comma(int64(v.Stats.Count)) + " samples"
	if in := c.ctrl.State(); in.Zoomed() {
		info += ", zoom " + humanize.FtoaWithDigits(in.Scale, 2) + "x"
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(iconButton(th, &c.pauseBtn, icon)),
		layout.Rigid(iconButton(th, &c.resetBtn, resetIcon)),
		layout.Rigid(iconButton(th, &c.clearBtn, clearIcon)),
		layout.Rigid(iconButton(th, &c.saveBtn, saveIcon)),
		layout.Flexed(1, func(gtx C) D {
			l := material.Body2(th, info)
			l.Alignment = text.End
			return layout.UniformInset(6).Layout(gtx, l.Layout)
		}),
	)
}

func (c *ChartView) layoutPlot(gtx C, th *material.Theme) D {
	size := gtx.Constraints.Max
	s := newGioSurface(gtx, th)
	c.lock.Lock()
	c.size = s.Size()
	c.lock.Unlock()

	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, c)
	switch {
	case c.renderer == nil:
	case c.paused:
		c.lock.Lock()
		in := c.in
		c.lock.Unlock()
		render.Render(s, c.renderer, render.NewFrame(c.frozen, chart.Dims(s.Size().X, s.Size().Y), in))
	default:
		if dl := c.latest.Load(); dl != nil {
			dl.Replay(s)
		}
	}
	return D{Size: size}
}

func (c *ChartView) layoutLegend(gtx C, th *material.Theme) D {
	table := component.Table(th, &c.keyTable)
	table.VScrollbarStyle.Indicator.MinorWidth = 0
	table.VScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	valueColWidth := gtx.Dp(100)
	nameColWidth := gtx.Constraints.Max.X - colorColWidth - 2*valueColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(20)
	const (
		colorCol = iota
		nameCol
		countCol
		latestCol
		numCols
	)
	v := c.current()
	counts := map[string]int{}
	latest := map[string]float64{}
	for _, s := range v.Samples {
		counts[s.Category]++
		latest[s.Category] = s.Value
	}
	palette := render.DefaultPalette
	return table.Layout(gtx, len(v.Categories), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			switch index {
			case colorCol:
				return min(colorColWidth, constraint)
			case nameCol:
				return min(max(nameColWidth, 0), constraint)
			default:
				return min(valueColWidth, constraint)
			}
		},
		func(gtx C, index int) D {
			var l material.LabelStyle
			switch index {
			case colorCol:
				l = material.Body1(th, "Show")
			case nameCol:
				l = material.Body1(th, "Category")
				l.Alignment = text.Middle
			case countCol:
				l = material.Body1(th, "Samples")
				l.Alignment = text.End
			case latestCol:
				l = material.Body1(th, "Latest")
				l.Alignment = text.End
			}
			l.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, l.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			cat := v.Categories[row]
			toggle, ok := c.enabled[cat]
			if !ok {
				return D{Size: gtx.Constraints.Min}
			}
			fullColor := palette.Category(slices.Index(v.Categories, cat))
			disabledAlpha := uint8(100)
			faded := func(l material.LabelStyle) material.LabelStyle {
				if !toggle.Value {
					l.Color.A = disabledAlpha
				}
				return l
			}
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				switch col {
				case colorCol:
					return toggle.Layout(gtx, func(gtx C) D {
						return layout.Center.Layout(gtx, func(gtx C) D {
							side := gtx.Dp(10)
							sz := image.Pt(side, side)
							swatch := fullColor
							if !toggle.Value {
								swatch.A = disabledAlpha
							}
							paint.FillShape(gtx.Ops, swatch, clip.Rect{Max: sz}.Op())
							return D{Size: sz}
						})
					})
				case nameCol:
					return faded(material.Body2(th, cat)).Layout(gtx)
				case countCol:
					l := faded(material.Body2(th, humanize.Comma(int64(counts[cat]))))
					l.Alignment = text.End
					return l.Layout(gtx)
				case latestCol:
					value := "-"
					if n := counts[cat]; n > 0 {
						value = humanize.FtoaWithDigits(latest[cat], 2)
					}
					l := faded(material.Body2(th, value))
					l.Alignment = text.End
					return l.Layout(gtx)
				default:
					return D{Size: gtx.Constraints.Max}
				}
			})
			if row&1 != 0 {
				stripe := fullColor
				stripe.A = 50
				paint.FillShape(gtx.Ops, stripe, clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}

// loadChosenTrace asks the user for a trace and replays it. It blocks on the
// file dialog and must not run on the UI goroutine.
func loadChosenTrace(ds *backend.Datasource, expl *explorer.Explorer) {
	rc, err := expl.ChooseFile(".csv", ".zst")
	if err != nil {
		log.Printf("failed choosing trace: %v", err)
		return
	}
	if f, ok := rc.(interface{ Name() string }); ok {
		// Reopen by path to get decompression and tailing.
		name := f.Name()
		if err := rc.Close(); err != nil {
			log.Printf("failed closing chosen trace: %v", err)
		}
		if err := ds.LoadFromFile(name); err != nil {
			log.Printf("failed loading trace: %v", err)
		}
		return
	}
	ds.LoadFromStream("trace", rc)
}
