package application

import "image-gateway/lazyload/domain"

const (
	marginSmall   = 10
	marginDefault = 50
)

// Classify mapeia o sinal de conexão para um perfil. Nunca falha:
// sinal ausente cai em medium, valor desconhecido cai em high.
func Classify(ect domain.EffectiveType) domain.QualityProfile {
	var p domain.QualityProfile
	switch ect {
	case domain.EffectiveTypeSlow2G, domain.EffectiveType2G:
		p = domain.QualityProfile{Tier: domain.TierLow, ConcurrencyLimit: 2, VisibilityMargin: marginSmall}
	case domain.EffectiveType3G:
		p = domain.QualityProfile{Tier: domain.TierMedium, ConcurrencyLimit: 4, VisibilityMargin: marginDefault}
	case domain.EffectiveTypeAbsent:
		// sem API de conexão: qualidade média, limite padrão
		p = domain.QualityProfile{Tier: domain.TierMedium, ConcurrencyLimit: 6, VisibilityMargin: marginDefault}
	default:
		p = domain.QualityProfile{Tier: domain.TierHigh, ConcurrencyLimit: 6, VisibilityMargin: marginDefault}
	}
	p.CompressionLevel = baseQuality(p.Tier)
	return p
}

func baseQuality(t domain.Tier) int {
	switch t {
	case domain.TierLow:
		return 60
	case domain.TierMedium:
		return 75
	default:
		return 85
	}
}

// QualityFor aplica o override de alta densidade em conexão lenta.
func QualityFor(t domain.Tier, devicePixelRatio float64) int {
	if devicePixelRatio > 1 && t == domain.TierLow {
		return 50
	}
	return baseQuality(t)
}
