package storage

import (
	"context"
	"io"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// Remover deletes every object under a prefix.
type Remover interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type Store interface {
	Uploader
	Remover
}

// AnswerAudioPrefix is the object prefix holding a session's recorded answers.
func AnswerAudioPrefix(sessionID string) string {
	return "sessions/" + sessionID + "/"
}
