package infra

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"image-gateway/lazyload/domain"

	"golang.org/x/net/html"
)

const (
	LazyClass      = "lazy-image"
	IndicatorClass = "image-loading-indicator"

	defaultWidth  = 400
	defaultHeight = 300
)

// Document adapta uma árvore golang.org/x/net/html ao contrato domain.Document.
//
// O layout é simplificado: imagens lazy empilhadas na ordem do documento,
// com a caixa vinda dos atributos width/height.
// Todos os acessos à árvore passam pelo mesmo mutex.
type Document struct {
	mu     sync.Mutex
	root   *html.Node
	elems  []*Element
	frames []func()
}

func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Document{root: root}
	var top float64
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "img") && hasClass(n, LazyClass) {
			w := attrFloat(n, "width", defaultWidth)
			h := attrFloat(n, "height", defaultHeight)
			el := &Element{
				doc:  d,
				node: n,
				id:   domain.ElementID(len(d.elems) + 1),
				rect: domain.Rect{Top: top, Width: w, Height: h},
			}
			d.elems = append(d.elems, el)
			top += h
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return d, nil
}

// Candidates implementa domain.Document.
func (d *Document) Candidates() []domain.Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]domain.Element, 0, len(d.elems))
	for _, el := range d.elems {
		if hasClass(el.node, "loaded") {
			continue
		}
		if v, ok := getAttr(el.node, "data-src"); ok && v != "" {
			out = append(out, el)
		}
	}
	return out
}

// Elements retorna todas as imagens lazy encontradas no parse.
func (d *Document) Elements() []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Element(nil), d.elems...)
}

// RequestFrame implementa domain.FrameScheduler; as funções rodam em FlushFrames.
func (d *Document) RequestFrame(fn func()) {
	d.mu.Lock()
	d.frames = append(d.frames, fn)
	d.mu.Unlock()
}

// FlushFrames executa os callbacks pendentes e retorna quantos rodaram.
func (d *Document) FlushFrames() int {
	d.mu.Lock()
	frames := d.frames
	d.frames = nil
	d.mu.Unlock()

	// fora do lock: os callbacks mexem nos elementos
	for _, fn := range frames {
		fn()
	}
	return len(frames)
}

func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// Element é um <img class="lazy-image"> da árvore.
type Element struct {
	doc  *Document
	node *html.Node
	id   domain.ElementID
	rect domain.Rect
}

func (e *Element) ID() domain.ElementID { return e.id }

func (e *Element) Rect() domain.Rect { return e.rect }

func (e *Element) PendingSource() (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	v, ok := getAttr(e.node, "data-src")
	return v, ok && v != ""
}

func (e *Element) PendingVariants() domain.Variants {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	srcset, _ := getAttr(e.node, "data-srcset")
	sizes, _ := getAttr(e.node, "data-sizes")
	return domain.Variants{SrcSet: srcset, Sizes: sizes}
}

func (e *Element) SetSource(src string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, "src", src)
}

func (e *Element) SetVariants(v domain.Variants) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if v.SrcSet != "" {
		setAttr(e.node, "srcset", v.SrcSet)
	}
	if v.Sizes != "" {
		setAttr(e.node, "sizes", v.Sizes)
	}
}

func (e *Element) AddClass(class string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if hasClass(e.node, class) {
		return
	}
	cur, _ := getAttr(e.node, "class")
	setAttr(e.node, "class", strings.TrimSpace(cur+" "+class))
}

func (e *Element) SetStyle(prop, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setStyle(e.node, prop, value)
}

func (e *Element) ClearStaging() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeAttr(e.node, "data-src")
	removeAttr(e.node, "data-srcset")
	removeAttr(e.node, "data-sizes")
}

// SetLoadingIndicator procura o indicador dentro do nó pai, como querySelector.
func (e *Element) SetLoadingIndicator(visible bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if e.node.Parent == nil {
		return
	}
	ind := findByClass(e.node.Parent, IndicatorClass)
	if ind == nil {
		return
	}
	display := "none"
	if visible {
		display = "block"
	}
	setStyle(ind, "display", display)
}

// Attr e HasClass são leituras para testes e para a CLI.
func (e *Element) Attr(key string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return getAttr(e.node, key)
}

func (e *Element) HasClass(class string) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return hasClass(e.node, class)
}

// IndicatorStyle retorna o style do indicador irmão ("" se não houver).
func (e *Element) IndicatorStyle() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.node.Parent == nil {
		return ""
	}
	ind := findByClass(e.node.Parent, IndicatorClass)
	if ind == nil {
		return ""
	}
	v, _ := getAttr(ind, "style")
	return v
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func hasClass(n *html.Node, class string) bool {
	v, ok := getAttr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func findByClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func attrFloat(n *html.Node, key string, def float64) float64 {
	v, ok := getAttr(n, key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

// setStyle troca (ou acrescenta) uma propriedade do atributo style,
// preservando a ordem das demais.
func setStyle(n *html.Node, prop, value string) {
	cur, _ := getAttr(n, "style")
	var parts []string
	found := false
	for _, decl := range strings.Split(cur, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		k, _, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(k), prop) {
			decl = prop + ": " + value
			found = true
		}
		parts = append(parts, decl)
	}
	if !found {
		parts = append(parts, prop+": "+value)
	}
	setAttr(n, "style", strings.Join(parts, "; "))
}
