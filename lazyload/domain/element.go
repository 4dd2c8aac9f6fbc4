package domain

// ElementID identifica um elemento no side-table do scheduler.
type ElementID uint64

// Rect é a caixa exibida do elemento, em pixels CSS.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Variants são os marcadores responsivos pendentes (srcset/sizes).
type Variants struct {
	SrcSet string
	Sizes  string
}

// Element é o mínimo que o scheduler precisa de um nó decorado.
//
// As implementações devem ser seguras para uso concorrente: o host pode
// renderizar o documento enquanto cargas terminam.
type Element interface {
	ID() ElementID
	// PendingSource retorna o locator bruto ainda não resolvido (data-src).
	PendingSource() (string, bool)
	PendingVariants() Variants
	Rect() Rect

	SetSource(src string)
	SetVariants(v Variants)
	AddClass(class string)
	SetStyle(prop, value string)
	// ClearStaging remove os atributos de staging (data-src, data-srcset, data-sizes).
	ClearStaging()
	// SetLoadingIndicator mostra/esconde o indicador irmão, se existir.
	SetLoadingIndicator(visible bool)
}

// Document expõe os candidatos a carregamento preguiçoso.
type Document interface {
	// Candidates retorna elementos lazy ainda não carregados que têm data-src.
	Candidates() []Element
}

// Observer notifica quando um elemento entra na viewport (expandida pela margem).
//
// onEnter pode ser chamado de dentro de Observe se o elemento já estiver visível.
type Observer interface {
	Observe(el Element, margin float64, onEnter func(Element))
	Unobserve(el Element)
	Disconnect()
}

// FrameScheduler adia uma função para o próximo frame de renderização.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// State é o estado do elemento na máquina do scheduler.
type State int

const (
	StateUnobserved State = iota
	StateObserved
	StateQueued
	StateLoading
	StateApplied
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateObserved:
		return "observed"
	case StateQueued:
		return "queued"
	case StateLoading:
		return "loading"
	case StateApplied:
		return "applied"
	case StateErrored:
		return "errored"
	default:
		return "unobserved"
	}
}

// LoadRequest nasce quando o elemento fica visível e é descartado após aplicar/falhar.
type LoadRequest struct {
	Element  Element
	Source   string
	Rect     Rect
	Variants Variants
}
