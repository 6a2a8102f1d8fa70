package fuzzratio

func consumeChannel[T any](ch <-chan T) {
	for range ch {
	}
}
