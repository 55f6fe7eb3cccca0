package services

import (
	"errors"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

const (
	welcomeText        = "Olá! Sou o assistente virtual do iFood Info Bot.\n\nExplore os temas abaixo ou faça sua pergunta diretamente:"
	mainMenuTitle      = "Escolha um tema:"
	followUpMenuTitle  = "Posso ajudar com mais alguma coisa?"
	subtopicMenuFormat = "Sobre %s, o que você gostaria de saber?"
	backEchoText       = "Voltar ao início"
	backReplyText      = "Claro! Aqui está o menu principal:"

	completionNotConfiguredText = "A integração com IA não está configurada. Por favor, configure a chave da API Groq (GROQ_API_KEY) no arquivo .env."
	searchNotConfiguredText     = "Configuração necessária: API de busca não configurada. Configure TAVILY_API_KEY no arquivo .env"
	searchQuotaText             = "Limite de buscas diário atingido. Tente novamente amanhã ou configure uma nova chave API."
	searchUnauthorizedText      = "API de busca não está configurada corretamente. Verifique as configurações."
	overloadedText              = "O serviço está com alta demanda no momento. Por favor, aguarde alguns instantes e tente novamente."
	genericErrorText            = "Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente."

	inappropriateFallbackReason = "O conteúdo enviado não é apropriado."
	offTopicFallbackReason      = "Esta pergunta está fora do meu escopo de conhecimento."
	blockedFallbackReason       = "Conteúdo não permitido."
)

const inappropriateRefusalFormat = "Desculpe, não posso processar essa mensagem.\n\n%s\n\nPor favor, mantenha uma comunicação respeitosa e educada."

const offTopicRefusalFormat = `%s

Sou especializado exclusivamente em informações sobre o iFood. Posso ajudá-lo com:

- Serviços e funcionalidades do iFood
- Números, estatísticas e dados da empresa
- Carreiras e processos seletivos
- Notícias e novidades
- Comparações com concorrentes
- Informações para restaurantes e entregadores

Como posso ajudá-lo com questões relacionadas ao iFood?`

// failureText maps a turn error to the message shown in the transcript.
func failureText(err error) string {
	switch {
	case errors.Is(err, domain.ErrSearchNotConfigured):
		return searchNotConfiguredText
	case errors.Is(err, domain.ErrSearchQuotaExceeded):
		return searchQuotaText
	case errors.Is(err, domain.ErrSearchUnauthorized):
		return searchUnauthorizedText
	case errors.Is(err, domain.ErrRateLimitExhausted):
		return overloadedText
	case errors.Is(err, domain.ErrCompletionNotConfigured):
		return completionNotConfiguredText
	default:
		return genericErrorText
	}
}
