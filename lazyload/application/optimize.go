package application

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"image-gateway/lazyload/domain"
)

const (
	DefaultMaxWidth  = 1200
	DefaultMaxHeight = 800
)

// DefaultResizableHosts são as origens que aceitam parâmetros de resize.
var DefaultResizableHosts = []string{"unsplash.com"}

// Optimizer compõe o locator otimizado. É puro: mesma entrada, mesma saída.
type Optimizer struct {
	Hosts     []string
	MaxWidth  int
	MaxHeight int
}

func DefaultOptimizer() Optimizer {
	return Optimizer{Hosts: DefaultResizableHosts, MaxWidth: DefaultMaxWidth, MaxHeight: DefaultMaxHeight}
}

// Resizable diz se o locator pertence a um serviço com resize remoto.
// Locators relativos ou inválidos nunca são otimizados.
func (o Optimizer) Resizable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range o.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (o Optimizer) Optimize(raw string, rect domain.Rect, devicePixelRatio float64, p domain.QualityProfile) string {
	if !o.Resizable(raw) {
		return raw
	}
	if devicePixelRatio <= 0 {
		devicePixelRatio = 1
	}
	maxW, maxH := o.MaxWidth, o.MaxHeight
	if maxW <= 0 {
		maxW = DefaultMaxWidth
	}
	if maxH <= 0 {
		maxH = DefaultMaxHeight
	}

	w := clamp(int(math.Ceil(rect.Width*devicePixelRatio)), maxW)
	h := clamp(int(math.Ceil(rect.Height*devicePixelRatio)), maxH)
	q := QualityFor(p.Tier, devicePixelRatio)

	base, _, _ := strings.Cut(raw, "?")

	var b strings.Builder
	b.Grow(len(base) + 48)
	b.WriteString(base)
	b.WriteString("?w=")
	b.WriteString(strconv.Itoa(w))
	b.WriteString("&h=")
	b.WriteString(strconv.Itoa(h))
	b.WriteString("&fit=crop&auto=format&q=")
	b.WriteString(strconv.Itoa(q))
	return b.String()
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

var rasterExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)`)

// SubstituteFormat troca a primeira extensão raster por .webp.
// Se nada casar, retorna o próprio locator (sem variante).
func SubstituteFormat(locator string) string {
	loc := rasterExt.FindStringIndex(locator)
	if loc == nil {
		return locator
	}
	return locator[:loc[0]] + ".webp" + locator[loc[1]:]
}
