package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.RWMutex
)

func getTokenizer(model string) (*tiktoken.Tiktoken, error) {
	tokenizerCacheMu.RLock()
	if tkm, ok := tokenizerCache[model]; ok {
		tokenizerCacheMu.RUnlock()
		return tkm, nil
	}
	tokenizerCacheMu.RUnlock()

	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()
	if tkm, ok := tokenizerCache[model]; ok {
		return tkm, nil
	}
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	tokenizerCache[model] = tkm
	return tkm, nil
}

// capTokens truncates text to at most maxTokens for the given model. When no
// tokenizer is available it falls back to a conservative byte estimate.
func capTokens(text, model string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	tkm, err := getTokenizer(model)
	if err != nil {
		// ~4 bytes per token is a safe ceiling for listing markup.
		if len(text) > maxTokens*4 {
			return text[:maxTokens*4]
		}
		return text
	}
	tokens := tkm.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return tkm.Decode(tokens[:maxTokens])
}
