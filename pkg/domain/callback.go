package domain

const (
	ThemeCallbackPrefix        = "theme:"
	ConversationCallbackPrefix = "conv:"
	BackCallback               = "menu:back"
	DisclaimerCallback         = "disclaimer:ok"
)
