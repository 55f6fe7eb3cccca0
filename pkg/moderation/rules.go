package moderation

import (
	"regexp"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

type Decision string

const (
	DecisionAllow    Decision = "allow"
	DecisionBlock    Decision = "block"
	DecisionNeedsLLM Decision = "needs_llm"
)

// Rule is one row of the local filter. Patterns run against normalized text.
type Rule struct {
	Name           string
	Patterns       []*regexp.Regexp
	RequireNoBrand bool
	Decision       Decision
	Category       domain.ModerationCategory
	Confidence     float64
	Reason         string
}

func (r Rule) matches(text string, hasBrand bool) bool {
	if r.RequireNoBrand && hasBrand {
		return false
	}
	for _, p := range r.Patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

const (
	reasonInappropriate = "A mensagem contém linguagem ou conteúdo inadequado."
	reasonCompetitor    = "Só posso responder sobre o iFood. Perguntas exclusivamente sobre outras empresas estão fora do meu escopo."
	reasonRecipe        = "Receitas e culinária estão fora do meu escopo."
	reasonOffTopic      = "Esta pergunta está fora do meu escopo de conhecimento."
)

// DefaultRules is the ordered rule table. The first matching rule wins.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "greeting",
			Patterns: compile(
				`^(oi|ola|opa|hey|hello|hi|eai|e ai|salve|bom dia|boa tarde|boa noite|tudo bem|tudo bom|como vai)(,? (tudo bem|tudo bom|como vai|bot|assistente|pessoal))?[\s!.?,]*$`,
				`^(muito )?(obrigad[oa]|valeu|vlw|thanks|thank you|brigad[oa]|agradeco)( (pela ajuda|mesmo))?[\s!.?,]*$`,
				`^(tchau|ate mais|ate logo|falou|flw)[\s!.?,]*$`,
			),
			Decision:   DecisionAllow,
			Category:   domain.CategoryAllowed,
			Confidence: 1.0,
		},
		{
			Name: "inappropriate",
			Patterns: compile(
				`\b(porra|caralho|merda|puta|puto|foda|foder|fodase|fdp|vsf|buceta|cu|cuzao|arrombad[oa]|desgracad[oa]|otari[oa]|idiota|imbecil|babaca|piranha|vagabund[oa]|viado|corno)\b`,
				`\bvai se (foder|f\*+)`,
				`\b(sexo|porno|pornografia|nudes?|transar|putaria|erotic[oa]|hentai)\b`,
				`\b(voce|vc|tu) (e|eh) (gostos[oa]|sexy|safad[oa])\b`,
				`\b(fazer|fabricar|montar) (uma )?bomba\b`,
				`\b(matar|assassinar|esfaquear) (alguem|uma pessoa|pessoas|voce|te|meu|minha)\b`,
				`\b(explosivos?|terroris\w*|sequestr\w*|arma de fogo)\b`,
				`\b(cocaina|maconha|crack|heroina|lsd|drogas?)\b`,
				`\b(hackear|invadir (a )?conta|phishing|clonar (o )?cartao|roubar (senha|conta|dados))\b`,
				`\b(racis\w*|nazis\w*|homofob\w*|xenofob\w*)\b`,
				`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`,
				`\bminha senha\b`,
			),
			Decision:   DecisionBlock,
			Category:   domain.CategoryInappropriate,
			Confidence: 0.95,
			Reason:     reasonInappropriate,
		},
		{
			Name: "competitor",
			Patterns: compile(
				`\b(rappi|uber ?eats|99 ?food|ze delivery|aiqfome|james delivery|keeta|doordash|glovo|deliveroo)\b`,
			),
			RequireNoBrand: true,
			Decision:       DecisionBlock,
			Category:       domain.CategoryOffTopic,
			Confidence:     0.9,
			Reason:         reasonCompetitor,
		},
		{
			Name: "recipe",
			Patterns: compile(
				`\breceitas?\b`,
				`\bmodo de preparo\b`,
				`\bingredientes?\b`,
				`\bcomo (fazer|preparar|cozinhar|assar) (um |uma |o |a )?(bolo|pizza|pao|hamburguer|lasanha|torta|brigadeiro|macarrao|arroz|feijao|feijoada|sushi|salada|sopa|doce|sobremesa|biscoito|cookie|pudim|mousse|frango|carne|peixe|molho|massa|omelete|panqueca|coxinha|esfiha|churrasco)\b`,
				`\b(cozinhar|assar|fritar)\b`,
			),
			RequireNoBrand: true,
			Decision:       DecisionBlock,
			Category:       domain.CategoryOffTopic,
			Confidence:     0.85,
			Reason:         reasonRecipe,
		},
		{
			Name: "off_topic",
			Patterns: compile(
				`\b(capital d[aoe]|quem (descobriu|inventou)|previsao do tempo|horoscopo|signo)\b`,
				`\b(quanto e \d+ (mais|menos|vezes|dividido)|\d+ ?[+*/] ?\d+|equacao|derivada|integral|teorema)\b`,
				`\b(python|javascript|java|golang|programar|programacao|algoritmo|html|css)\b`,
				`\b(futebol|campeonato|copa do mundo|brasileirao|flamengo|corinthians|palmeiras|nba|formula 1)\b`,
				`\b(filmes?|series?|novela|cantor|celebridades?|piadas?|netflix|bbb)\b`,
				`\b(dieta|emagrecer|calorias|remedios?|sintomas?|doencas?|academia)\b`,
				`\b(eleicao|eleicoes|politica|partido|religiao|igreja)\b`,
			),
			RequireNoBrand: true,
			Decision:       DecisionBlock,
			Category:       domain.CategoryOffTopic,
			Confidence:     0.8,
			Reason:         reasonOffTopic,
		},
		{
			Name: "brand_context",
			Patterns: compile(
				brandPattern,
				`\b(delivery|entregas?|entregador(es)?|restaurantes? parceiros?|parceiros?|pedidos?|cupom|cupons|motoboy|taxa de entrega|app de comida)\b`,
			),
			Decision: DecisionNeedsLLM,
		},
	}
}

const brandPattern = `\bi ?food\b`

var brandRe = regexp.MustCompile(brandPattern)
