package tavily

import (
	"fmt"
	"strings"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

const noResultsInstruction = "NENHUM RESULTADO ENCONTRADO NA BUSCA WEB. Você deve informar ao usuário que não encontrou informações confiáveis sobre este tópico e não pode responder."

var criticalInstructions = []string{
	"Você DEVE basear sua resposta EXCLUSIVAMENTE nos resultados abaixo",
	"Cite APENAS as fontes MAIS RELEVANTES que você realmente utilizou (1 a 3 fontes principais)",
	"Você NÃO PODE adicionar informações que não estejam nos resultados",
	"Se os resultados forem insuficientes, INFORME que não encontrou informações confiáveis",
	`SEMPRE inclua a seção "Fontes consultadas:" no final com links das fontes utilizadas`,
	"NÃO use aspas no início da mensagem",
	"NÃO use emojis na resposta",
	`NÃO inclua "Acessado em [data]" nas citações de fontes`,
	"Priorize QUALIDADE sobre quantidade nas citações de fontes",
}

// FormatResults renders search results as the grounding block handed to the model.
func FormatResults(resp domain.SearchResponse) string {
	if len(resp.Results) == 0 {
		return noResultsInstruction
	}

	var b strings.Builder
	b.WriteString("=== RESULTADOS DA BUSCA NA WEB ===\n\n")
	fmt.Fprintf(&b, "Query: %s\n", resp.Query)
	fmt.Fprintf(&b, "Data da busca: %s\n\n", resp.Timestamp.Format("02/01/2006"))

	b.WriteString("INSTRUÇÕES CRÍTICAS:\n")
	for i, instruction := range criticalInstructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, instruction)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "RESULTADOS (%d):\n\n", len(resp.Results))
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "--- RESULTADO %d ---\n", i+1)
		fmt.Fprintf(&b, "Título: %s\n", r.Title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "Data de publicação: %s\n", r.PublishedDate)
		}
		fmt.Fprintf(&b, "Relevância: %.0f%%\n", r.Score*100)
		fmt.Fprintf(&b, "Conteúdo:\n%s\n\n", r.Content)
	}

	b.WriteString("\n=== FIM DOS RESULTADOS ===\n\n")
	b.WriteString("LEMBRE-SE: Cite apenas os URLs das fontes que você realmente utilizou (1 a 3 principais).\n")
	b.WriteString("Priorize fontes mais relevantes e confiáveis. Não é obrigatório usar todos os resultados.\n")

	return b.String()
}
