package stt

import (
	"context"
	"errors"
)

// Audio is one recorded answer.
type Audio struct {
	Data        []byte
	ContentType string // audio/wav, audio/webm, audio/ogg, audio/flac
	Language    string // BCP-47, ex: "en-US"
}

type Provider interface {
	Transcribe(ctx context.Context, a Audio) (text string, confidence float64, err error)
	Close() error
}

var ErrEmptyAudio = errors.New("stt: empty audio")
