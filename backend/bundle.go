package backend

import "context"

// Bundle groups the long-lived backend services of one application.
type Bundle struct {
	Datasource *Datasource
	Aggregator *Aggregator
	Summarizer *Summarizer
}

// NewBundle starts the services feeding sink. snapshot must return a copy of
// the samples currently held by sink.
func NewBundle(ctx context.Context, sink Sink, snapshot func() []Sample, source Source, cfg FeedConfig) Bundle {
	agg := NewAggregator(ctx)
	return Bundle{
		Datasource: NewDatasource(ctx, sink, source, cfg),
		Aggregator: agg,
		Summarizer: NewSummarizer(snapshot, agg),
	}
}

// Close tears every service down. Pending aggregator requests are dropped.
func (b Bundle) Close() error {
	b.Summarizer.Stop()
	err := b.Datasource.Close()
	b.Aggregator.Close()
	return err
}
