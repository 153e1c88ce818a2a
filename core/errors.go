package core

import (
	"errors"
	"fmt"
)

// FailureKind classifies where in the pipeline a request died. Callers use
// it to distinguish conditions that could be retried from fatal ones.
type FailureKind string

const (
	// KindAcquisition: the video could not be downloaded or decoded.
	KindAcquisition FailureKind = "acquisition"
	// KindTranscription: speech-to-text failed.
	KindTranscription FailureKind = "transcription"
	// KindRecognition: frame OCR failed.
	KindRecognition FailureKind = "recognition"
	// KindEmbedding: the embedding gateway failed. Fatal to the whole
	// ingestion batch; a partially embedded corpus silently degrades
	// retrieval quality.
	KindEmbedding FailureKind = "embedding"
	// KindStore: chunk store connectivity or transaction failure.
	KindStore FailureKind = "store"
	// KindGeneration: the text-generation call failed at query time.
	KindGeneration FailureKind = "generation"
)

// Failure wraps a pipeline error with its kind. All fatal sub-step errors
// surface to the caller as a Failure; none are swallowed.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func Acquisition(err error) error   { return &Failure{Kind: KindAcquisition, Err: err} }
func Transcription(err error) error { return &Failure{Kind: KindTranscription, Err: err} }
func Recognition(err error) error   { return &Failure{Kind: KindRecognition, Err: err} }
func Embedding(err error) error     { return &Failure{Kind: KindEmbedding, Err: err} }
func Store(err error) error         { return &Failure{Kind: KindStore, Err: err} }
func Generation(err error) error    { return &Failure{Kind: KindGeneration, Err: err} }

// KindOf returns the failure kind of err, or "" when err carries none.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
