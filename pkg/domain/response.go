package domain

// Response is a front-end bound event produced by the services.
type Response struct {
	ChatID          int64
	Text            string
	Message         *Message
	Progress        *SearchProgress
	ProgressCleared bool
	Typing          bool
	Keyboard        *Keyboard
	Err             error
}

type Keyboard struct {
	Buttons       []Button
	ButtonsPerRow int
}

type Button struct {
	Label string
	Data  string
}
