package lazyload

import (
	"net/http"
	"net/url"
	"time"

	"image-gateway/lazyload/application"
	"image-gateway/lazyload/domain"
	"image-gateway/lazyload/infra"

	"go.uber.org/zap"
)

type Options struct {
	Document domain.Document
	Observer domain.Observer
	// Frames nil aplica a transição de opacidade na hora.
	Frames domain.FrameScheduler

	EffectiveType    domain.EffectiveType
	DevicePixelRatio float64
	ResizableHosts   []string

	// Fetcher tem precedência sobre Client/BaseURL.
	Fetcher      domain.Fetcher
	Client       *http.Client
	BaseURL      *url.URL
	Capabilities domain.Capabilities

	ResizeQuiet  time.Duration
	FetchTimeout time.Duration

	Logger *zap.Logger
}

// New classifica a conexão e monta um Scheduler com as implementações de infra.
func New(opts Options) *application.Scheduler {
	profile := application.Classify(opts.EffectiveType)

	optimizer := application.DefaultOptimizer()
	if len(opts.ResizableHosts) > 0 {
		optimizer.Hosts = opts.ResizableHosts
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &infra.HTTPFetcher{Client: opts.Client, Base: opts.BaseURL}
	}
	caps := opts.Capabilities
	if caps == nil {
		caps = &infra.DecoderProbe{}
	}
	observer := opts.Observer
	if observer == nil {
		observer = infra.NewViewport(1280, 800)
	}

	return application.NewScheduler(application.Config{
		Profile:          profile,
		Optimizer:        optimizer,
		DevicePixelRatio: opts.DevicePixelRatio,
		Document:         opts.Document,
		Observer:         observer,
		Fetcher:          fetcher,
		Slots:            infra.NewChanPool(profile.ConcurrencyLimit),
		Capabilities:     caps,
		Frames:           opts.Frames,
		ResizeQuiet:      opts.ResizeQuiet,
		FetchTimeout:     opts.FetchTimeout,
		Logger:           opts.Logger,
	})
}
