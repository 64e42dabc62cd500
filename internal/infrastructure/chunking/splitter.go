package chunking

import "strings"

// Splitter cuts extracted clinical text into overlapping windows for the
// full-text index. Cuts snap back to the last sentence boundary inside the
// window when one exists, so chunks rarely break mid-sentence.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastBoundary(runes[start:end]); cut > s.ChunkSize/2 {
			end = start + cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
		next := end - s.Overlap
		if next <= start {
			next = start + step
		}
		start = next
	}
	return out
}

// lastBoundary returns the index just past the last sentence terminator in
// the window, or -1 when the window has none.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		switch window[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return -1
}
