package asr

import "context"

type SpeechRecognitionAPI interface {
	Run(ctx context.Context, data []byte) (*ASROutput, error)
}

type ASROutput struct {
	Text      string
	ModelName string

	// ISO 639-3 code reported by the provider, empty if it didn't say
	Language            string
	LanguageProbability float64

	Words []Word
}

type WordType string

const (
	WordTypeWord       WordType = "word"
	WordTypeSpacing    WordType = "spacing"
	WordTypeAudioEvent WordType = "audio_event"
)

type Word struct {
	Text  string
	Start float64
	End   float64
	Type  WordType
	// only set when diarization was requested
	SpeakerID string
}

type Segment struct {
	SpeakerID string  `json:"speaker"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
}

// Segments groups consecutive words by speaker. Spacing between two words of
// the same speaker is kept, spacing at a speaker change is dropped.
//
// Returns nil if there are no speaker labels.
func (o *ASROutput) Segments() []Segment {
	var segments []Segment
	var current *Segment
	pendingSpace := ""

	for _, w := range o.Words {
		if w.Type == WordTypeSpacing {
			if current != nil {
				pendingSpace += w.Text
			}
			continue
		}
		if w.SpeakerID == "" {
			continue
		}

		if current == nil || current.SpeakerID != w.SpeakerID {
			segments = append(segments, Segment{
				SpeakerID: w.SpeakerID,
				Start:     w.Start,
			})
			current = &segments[len(segments)-1]
			pendingSpace = ""
		}

		current.Text += pendingSpace + w.Text
		current.End = w.End
		pendingSpace = ""
	}

	return segments
}
