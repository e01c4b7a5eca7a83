package services

import (
	"strings"

	"mirror-backend/internal/models"
	"mirror-backend/internal/policy"
)

// PaywallGate builds the upsell payload for a gated action. Opening the gate
// never performs the gated action; it is a pure interrupt. When billing is
// disabled the gate is bypassed and callers show a blocking notice instead.
type PaywallGate struct {
	policy *policy.RemoteConfig
}

// NewPaywallGate creates a new paywall gate
func NewPaywallGate(cfg *policy.RemoteConfig) *PaywallGate {
	return &PaywallGate{policy: cfg}
}

// Enabled reports whether the payment flow may be offered at all
func (g *PaywallGate) Enabled() bool {
	return g.policy.Billing.Enabled
}

// Notice returns the blocking message shown when billing is disabled
func (g *PaywallGate) Notice(lang string) string {
	return coachStringsFor(lang).Unavailable
}

// ResolveRegion determines the user's payment region from locale and timezone
// strings alone. Pix is a Brazil-only payment rail, so "BR" is the only
// region the gate distinguishes.
func ResolveRegion(locale, timezone string) string {
	if strings.Contains(strings.ToLower(locale), "pt-br") {
		return "BR"
	}
	for _, tz := range []string{"America/Sao_Paulo", "America/Fortaleza", "America/Belem"} {
		if strings.HasPrefix(timezone, tz) {
			return "BR"
		}
	}
	return "OTHER"
}

// Offer builds the localized upsell payload for the given reason
func (g *PaywallGate) Offer(reason models.PaywallReason, lang, region, preview string) *models.PaywallOffer {
	perLang, ok := paywallCopy[lang]
	if !ok {
		perLang = paywallCopy["en"]
	}
	c, ok := perLang[reason]
	if !ok {
		c = perLang[models.ReasonLimit]
	}

	allowPix := region == "BR"
	offer := &models.PaywallOffer{
		Reason:       reason,
		Title:        c.Title,
		Subtitle:     c.Subtitle,
		Highlight:    c.Highlight,
		Benefits:     c.Benefits,
		CTAPrimary:   c.PayWithCard,
		CTASecondary: c.CTASecondary,
		PayWithCard:  c.PayWithCard,
		Close:        c.Close,
		SmallPrint:   c.SmallPrint,
		AllowPix:     allowPix,
		PreviewImage: preview,
	}
	if allowPix {
		offer.PayWithPix = c.PayWithPix
	}
	return offer
}

type paywallReasonCopy struct {
	Title        string
	Subtitle     string
	Highlight    string
	Benefits     []string
	CTASecondary string
	PayWithPix   string
	PayWithCard  string
	Close        string
	SmallPrint   string
}

var paywallCopy = map[string]map[models.PaywallReason]paywallReasonCopy{
	"en": {
		models.ReasonLimit: {
			Title:     "Unlock Premium Looks",
			Subtitle:  "You’ve used today’s free looks. Keep going — your next look is waiting.",
			Highlight: "YOUR PHOTO • YOUR UPGRADE",
			Benefits: []string{
				"More looks per day (no waiting)",
				"Full step-by-step coaching (all steps)",
				"Personal shopper: better matches + faster shopping",
				"Priority features + new modes first",
			},
			CTASecondary: "Not now",
			PayWithPix:   "Pay with Pix",
			PayWithCard:  "Pay with Card",
			Close:        "Close",
			SmallPrint:   "Secure checkout. Cancel anytime. Your mirror, upgraded.",
		},
		models.ReasonCoach: {
			Title:     "Full Coaching is Premium",
			Subtitle:  "Want the next step? Premium unlocks the complete coaching flow — and more daily looks.",
			Highlight: "COACHING • PREMIUM",
			Benefits: []string{
				"Unlock the next coaching steps",
				"More looks per day",
				"Personal shopper + curated picks",
				"Priority updates",
			},
			CTASecondary: "Continue free",
			PayWithPix:   "Pay with Pix",
			PayWithCard:  "Get Premium",
			Close:        "Close",
			SmallPrint:   "Upgrade once and the mirror becomes your daily stylist.",
		},
		models.ReasonCoachQA: {
			Title:     "Coach Q&A is Premium",
			Subtitle:  "You’ve used your free coaching question. Premium unlocks unlimited Q&A during your session.",
			Highlight: "Q&A • PREMIUM",
			Benefits: []string{
				"Unlimited coach questions",
				"Full coaching steps",
				"More looks per day",
				"Personal shopper",
			},
			CTASecondary: "Maybe later",
			PayWithPix:   "Pay with Pix",
			PayWithCard:  "Get Premium",
			Close:        "Close",
			SmallPrint:   "Ask anything — Emma stays with you step by step.",
		},
		models.ReasonShop: {
			Title:     "Personal Shopper is Premium",
			Subtitle:  "Premium unlocks more verified matches and smarter shopping suggestions for your exact vibe.",
			Highlight: "SHOPPING • PREMIUM",
			Benefits: []string{
				"More verified matches",
				"Better brand suggestions",
				"More looks per day",
				"Full coaching",
			},
			CTASecondary: "Keep browsing",
			PayWithPix:   "Pay with Pix",
			PayWithCard:  "Get Premium",
			Close:        "Close",
			SmallPrint:   "Upgrade to shop smarter, faster, and with confidence.",
		},
	},
	"pt": {
		models.ReasonLimit: {
			Title:     "Desbloqueie o Premium",
			Subtitle:  "Você já usou os looks grátis de hoje. Continue — seu próximo look está pronto.",
			Highlight: "SUA FOTO • SEU UPGRADE",
			Benefits: []string{
				"Mais looks por dia (sem esperar)",
				"Coaching completo passo a passo",
				"Personal shopper: melhores sugestões",
				"Novidades e recursos primeiro",
			},
			CTASecondary: "Agora não",
			PayWithPix:   "Pagar com Pix",
			PayWithCard:  "Pagar no cartão",
			Close:        "Fechar",
			SmallPrint:   "Pagamento seguro. Cancele quando quiser. Seu espelho, melhorado.",
		},
		models.ReasonCoach: {
			Title:        "Coaching completo é Premium",
			Subtitle:     "Quer o próximo passo? O Premium libera todo o coaching — e mais looks por dia.",
			Highlight:    "COACHING • PREMIUM",
			Benefits:     []string{"Libere os próximos passos", "Mais looks por dia", "Personal shopper", "Atualizações prioritárias"},
			CTASecondary: "Continuar grátis",
			PayWithPix:   "Pagar com Pix",
			PayWithCard:  "Quero Premium",
			Close:        "Fechar",
			SmallPrint:   "Faça upgrade e tenha um estilista todos os dias.",
		},
		models.ReasonCoachQA: {
			Title:        "Perguntas ao Coach é Premium",
			Subtitle:     "Você já usou sua pergunta grátis. O Premium libera perguntas ilimitadas.",
			Highlight:    "Q&A • PREMIUM",
			Benefits:     []string{"Perguntas ilimitadas", "Coaching completo", "Mais looks por dia", "Personal shopper"},
			CTASecondary: "Talvez depois",
			PayWithPix:   "Pagar com Pix",
			PayWithCard:  "Quero Premium",
			Close:        "Fechar",
			SmallPrint:   "Pergunte qualquer coisa — a Emma te guia.",
		},
		models.ReasonShop: {
			Title:        "Personal shopper é Premium",
			Subtitle:     "O Premium libera mais matches e sugestões de compra mais inteligentes.",
			Highlight:    "LOJA • PREMIUM",
			Benefits:     []string{"Mais matches", "Sugestões melhores", "Mais looks por dia", "Coaching completo"},
			CTASecondary: "Continuar vendo",
			PayWithPix:   "Pagar com Pix",
			PayWithCard:  "Quero Premium",
			Close:        "Fechar",
			SmallPrint:   "Faça upgrade para comprar com mais confiança.",
		},
	},
	"es": {
		models.ReasonLimit: {
			Title:        "Desbloquea Premium",
			Subtitle:     "Ya usaste tus looks gratis de hoy. Sigue — tu próximo look te espera.",
			Highlight:    "TU FOTO • TU UPGRADE",
			Benefits:     []string{"Más looks por día", "Coaching completo paso a paso", "Personal shopper", "Nuevas funciones primero"},
			CTASecondary: "Ahora no",
			PayWithPix:   "Pagar con Pix",
			PayWithCard:  "Pagar con tarjeta",
			Close:        "Cerrar",
			SmallPrint:   "Pago seguro. Cancela cuando quieras.",
		},
		models.ReasonCoach: {
			Title:        "El coaching completo es Premium",
			Subtitle:     "¿Quieres el siguiente paso? Premium desbloquea todo el coaching y más looks por día.",
			Highlight:    "COACHING • PREMIUM",
			Benefits:     []string{"Desbloquea más pasos", "Más looks por día", "Personal shopper", "Actualizaciones prioritarias"},
			CTASecondary: "Seguir gratis",
			PayWithPix:   "Pagar con Pix",
			PayWithCard:  "Quiero Premium",
			Close:        "Cerrar",
			SmallPrint:   "Upgrade y tu espejo se vuelve tu estilista diario.",
		},
		models.ReasonCoachQA: {
			Title:        "Preguntas al coach es Premium",
			Subtitle:     "Ya usaste tu pregunta gratis. Premium desbloquea preguntas ilimitadas.",
			Highlight:    "Q&A • PREMIUM",
			Benefits:     []string{"Preguntas ilimitadas", "Coaching completo", "Más looks por día", "Personal shopper"},
			CTASecondary: "Luego",
			PayWithPix:   "Pagar con Pix",
			PayWithCard:  "Quiero Premium",
			Close:        "Cerrar",
			SmallPrint:   "Pregunta lo que quieras — Emma te guía.",
		},
		models.ReasonShop: {
			Title:        "Personal shopper es Premium",
			Subtitle:     "Premium desbloquea más matches verificados y mejores sugerencias.",
			Highlight:    "TIENDA • PREMIUM",
			Benefits:     []string{"Más matches", "Mejores marcas", "Más looks por día", "Coaching completo"},
			CTASecondary: "Seguir viendo",
			PayWithPix:   "Pagar con Pix",
			PayWithCard:  "Quiero Premium",
			Close:        "Cerrar",
			SmallPrint:   "Compra más rápido y con confianza.",
		},
	},
	"ja": {
		models.ReasonLimit: {
			Title:        "プレミアムを解除",
			Subtitle:     "本日の無料ルックは使い切りました。続けて次のルックへ。",
			Highlight:    "あなたの写真 • アップグレード",
			Benefits:     []string{"1日あたりのルック数アップ", "フルコーチング（全ステップ）", "パーソナルショッパー", "新機能を優先解放"},
			CTASecondary: "今はやめる",
			PayWithPix:   "Pixで支払う",
			PayWithCard:  "カードで支払う",
			Close:        "閉じる",
			SmallPrint:   "安全な決済。いつでもキャンセル可能。",
		},
		models.ReasonCoach: {
			Title:        "フルコーチングはプレミアム",
			Subtitle:     "次のステップへ進みたい？プレミアムで全コーチング＋もっとルック。",
			Highlight:    "COACHING • PREMIUM",
			Benefits:     []string{"次のステップを解除", "1日あたりのルック数アップ", "パーソナルショッパー", "優先アップデート"},
			CTASecondary: "無料で続ける",
			PayWithPix:   "Pixで支払う",
			PayWithCard:  "プレミアムにする",
			Close:        "閉じる",
			SmallPrint:   "毎日のスタイリストを手に入れよう。",
		},
		models.ReasonCoachQA: {
			Title:        "Q&Aはプレミアム",
			Subtitle:     "無料の質問を使い切りました。プレミアムで無制限に質問できます。",
			Highlight:    "Q&A • PREMIUM",
			Benefits:     []string{"質問し放題", "フルコーチング", "もっとルック", "パーソナルショッパー"},
			CTASecondary: "あとで",
			PayWithPix:   "Pixで支払う",
			PayWithCard:  "プレミアムにする",
			Close:        "閉じる",
			SmallPrint:   "Emmaが最後まで一緒にガイドします。",
		},
		models.ReasonShop: {
			Title:        "パーソナルショッパーはプレミアム",
			Subtitle:     "プレミアムでより多くのおすすめ＆賢い提案を解除。",
			Highlight:    "SHOPPING • PREMIUM",
			Benefits:     []string{"おすすめを増やす", "ブランド提案UP", "もっとルック", "フルコーチング"},
			CTASecondary: "閲覧を続ける",
			PayWithPix:   "Pixで支払う",
			PayWithCard:  "プレミアムにする",
			Close:        "閉じる",
			SmallPrint:   "もっとスマートにお買い物。",
		},
	},
}
