package main

import (
	"fmt"
	"time"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"git.sr.ht/~gioverse/skel/stream"
	"git.sr.ht/~whereswaldon/streamviz/backend"
	"github.com/dustin/go-humanize"
)

// SummaryView shows the periodic per-category digest computed by the
// background aggregator.
type SummaryView struct {
	summaries *stream.Stream[backend.Summary]
	summary   backend.Summary
	table     component.GridState
}

func NewSummaryView(ws WindowState) *SummaryView {
	return &SummaryView{
		summaries: stream.New(ws.Controller, ws.Bundle.Summarizer.Summaries),
	}
}

func (s *SummaryView) Update(gtx C) {
	s.summaries.ReadInto(gtx, &s.summary, backend.Summary{})
}

func formatSpan(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(time.Second).String()
}

func (s *SummaryView) Layout(gtx C, th *material.Theme) D {
	s.Update(gtx)
	sum := s.summary
	header := fmt.Sprintf("%s samples in %d categories spanning %s. Buckets of %v over the last %v, computed in %v.",
		humanize.Comma(int64(sum.Stats.Count)),
		sum.Stats.Categories,
		formatSpan(sum.Stats.End-sum.Stats.Start),
		sum.Bucket,
		sum.Span,
		sum.Elapsed.Round(time.Microsecond),
	)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return layout.UniformInset(8).Layout(gtx, material.Body1(th, header).Layout)
		}),
		layout.Flexed(1, func(gtx C) D {
			return s.layoutTable(gtx, th)
		}),
	)
}

func (s *SummaryView) layoutTable(gtx C, th *material.Theme) D {
	table := component.Table(th, &s.table)
	nameColWidth := gtx.Dp(160)
	rowHeight := gtx.Sp(20)
	headings := []string{"Category", "Buckets", "Current", "Low", "High", "Peak"}
	valueColWidth := max((gtx.Constraints.Max.X-nameColWidth-gtx.Dp(table.VScrollbarStyle.Width()))/(len(headings)-1), 0)
	rows := s.summary.Categories
	return table.Layout(gtx, len(rows), len(headings),
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			if index == 0 {
				return min(nameColWidth, constraint)
			}
			return min(valueColWidth, constraint)
		},
		func(gtx C, index int) D {
			l := material.Body1(th, headings[index])
			if index > 0 {
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
			r := rows[row]
			var l material.LabelStyle
			switch col {
			case 0:
				l = material.Body2(th, r.Category)
			case 1:
				l = material.Body2(th, humanize.Comma(int64(r.Buckets)))
			case 2:
				l = material.Body2(th, humanize.FtoaWithDigits(r.Current, 2))
			case 3:
				l = material.Body2(th, humanize.FtoaWithDigits(r.Low, 2))
			case 4:
				l = material.Body2(th, humanize.FtoaWithDigits(r.High, 2))
			case 5:
				l = material.Body2(th, humanize.FtoaWithDigits(r.Peak, 2))
			}
			if col > 0 {
				l.Alignment = text.End
			}
			return layout.UniformInset(2).Layout(gtx, l.Layout)
		})
}
