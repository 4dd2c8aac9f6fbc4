package infra

import (
	"bytes"
	"sync"

	"golang.org/x/image/webp"
)

// webpProbe é um WebP lossless 1x1.
var webpProbe = []byte{
	'R', 'I', 'F', 'F', 0x1a, 0x00, 0x00, 0x00,
	'W', 'E', 'B', 'P', 'V', 'P', '8', 'L',
	0x0d, 0x00, 0x00, 0x00, 0x2f, 0x00, 0x00, 0x00,
	0x10, 0x07, 0x10, 0x11, 0x11, 0x88, 0x88, 0xfe,
	0x07, 0x00,
}

// DecoderProbe responde se o runtime decodifica WebP. O probe roda uma vez.
type DecoderProbe struct {
	once sync.Once
	webp bool
}

func (p *DecoderProbe) SupportsWebP() bool {
	p.once.Do(func() {
		_, err := webp.DecodeConfig(bytes.NewReader(webpProbe))
		p.webp = err == nil
	})
	return p.webp
}

// StaticCapabilities fixa a resposta (ex.: flag -webp=false na CLI).
type StaticCapabilities struct {
	WebP bool
}

func (c StaticCapabilities) SupportsWebP() bool { return c.WebP }
