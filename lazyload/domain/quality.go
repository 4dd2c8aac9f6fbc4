package domain

import "strings"

// Tier é a faixa grosseira de qualidade de rede.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// EffectiveType é o sinal opaco de conexão reportado pelo host
// (ex.: header ECT de client hints). Vazio significa sinal ausente.
type EffectiveType string

const (
	EffectiveTypeAbsent EffectiveType = ""
	EffectiveTypeSlow2G EffectiveType = "slow-2g"
	EffectiveType2G     EffectiveType = "2g"
	EffectiveType3G     EffectiveType = "3g"
	EffectiveType4G     EffectiveType = "4g"
)

// ParseEffectiveType normaliza o valor vindo de header/flag/env.
func ParseEffectiveType(v string) EffectiveType {
	return EffectiveType(strings.ToLower(strings.TrimSpace(v)))
}

// QualityProfile é calculado uma vez por sessão e não muda depois disso.
type QualityProfile struct {
	Tier             Tier
	ConcurrencyLimit int
	// VisibilityMargin em pixels CSS, aplicada em volta da viewport.
	VisibilityMargin float64
	// CompressionLevel é a qualidade base (0-100) pedida ao serviço remoto.
	CompressionLevel int
}
