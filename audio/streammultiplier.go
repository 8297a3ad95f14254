package audio

// StreamMultiplier creates N output channel copies of the input. Every output receives the
// same frame, so consumers must not modify it. All outputs are closed when in is closed or
// done fires.
func StreamMultiplier(done <-chan struct{}, in <-chan []float32, n int) []chan []float32 {
	out := make([]chan []float32, n)
	for i := range out {
		out[i] = make(chan []float32, 4)
	}

	go func() {
		for i := range out {
			defer close(out[i])
		}

		for {
			var x []float32
			select {
			case <-done:
				return
			case x = <-in:
			}
			if x == nil {
				return
			}

			for i := range out {
				select {
				case out[i] <- x:
				case <-done:
					return
				}
			}
		}
	}()

	return out
}
