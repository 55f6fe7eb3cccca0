package tavily

import "strings"

// GenerateSearchQuery prefixes the brand unless the message already mentions it.
func GenerateSearchQuery(brand, message string) string {
	if strings.Contains(strings.ToLower(message), strings.ToLower(brand)) {
		return message
	}
	return brand + " " + message
}
