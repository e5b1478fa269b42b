package entity

import "fmt"

// NotFoundError means the upstream returned an empty quote or profile payload
// for the symbol. An unrecognized ticker and an upstream outage are not
// distinguishable here because the provider does not distinguish them.
type NotFoundError struct {
	Symbol string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no data found for symbol %s", e.Symbol)
}

// UpstreamError is a transport or HTTP failure talking to the market-data API.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// GenerationError is a failure of the text-generation collaborator.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("text generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
