package services

import (
	"regexp"
	"strings"
)

const (
	conversationalTemperature = 0.7
	factualTemperature        = 0.3
	defaultTemperature        = 0.5
)

var (
	conversationalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(oi|olá|ola|hey|eai|e ai|bom dia|boa tarde|boa noite|tudo bem|como vai)`),
		regexp.MustCompile(`^(obrigad[oa]|valeu|vlw|thanks|brigad)`),
	}
	factualPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(quanto|quantos|qual|quais|quando|onde|como|por ?que)`),
		regexp.MustCompile(`(taxa|comissão|valor|preço|custo|salário|ganho)`),
		regexp.MustCompile(`(estatística|dado|número|percentual|porcentagem)`),
		regexp.MustCompile(`(história|fundação|fundador|ceo|diretor)`),
		regexp.MustCompile(`(requisito|documento|cadastro|prazo)`),
	}
)

// temperatureFor picks a sampling temperature from the phrasing of the message.
func temperatureFor(message string) float64 {
	text := strings.ToLower(strings.TrimSpace(message))

	for _, p := range conversationalPatterns {
		if p.MatchString(text) {
			return conversationalTemperature
		}
	}
	for _, p := range factualPatterns {
		if p.MatchString(text) {
			return factualTemperature
		}
	}
	return defaultTemperature
}
