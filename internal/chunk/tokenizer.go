package chunk

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// EncodingName is the tiktoken encoding used for all token counting.
// cl100k_base is the GPT-4/Claude-compatible subword vocabulary; it is
// fixed so that chunk boundaries are deterministic across runs.
const EncodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// encoding returns the shared tiktoken encoding. Loading the BPE ranks
// is expensive, so it happens once per process.
func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(EncodingName)
		if encErr != nil {
			encErr = fmt.Errorf("load %s encoding: %w", EncodingName, encErr)
		}
	})
	return enc, encErr
}

// CountTokens returns the subword token count of text.
func CountTokens(text string) (int, error) {
	e, err := encoding()
	if err != nil {
		return 0, err
	}
	return len(e.Encode(text, nil, nil)), nil
}
