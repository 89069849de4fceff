package types

// Stream event payloads for the ask endpoint. Each SSE frame carries exactly
// one of these as its JSON body. The sources event always comes first, answer
// events follow in concatenation order, and an error event terminates the
// stream with nothing after it.

type SourcesEvent struct {
	Sources []string `json:"sources"`
}

type AnswerEvent struct {
	Answer string `json:"answer"`
}

type ErrorEvent struct {
	Error string `json:"error"`
}
