package stt

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

type GoogleSpeech struct {
	c *speech.Client

	DefaultLanguage string
	SampleRateHz    int32 // used for LINEAR16 only
}

func NewGoogleSpeech(ctx context.Context, defaultLanguage string) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if defaultLanguage == "" {
		defaultLanguage = "en-US"
	}
	return &GoogleSpeech{c: c, DefaultLanguage: defaultLanguage, SampleRateHz: 16000}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, a Audio) (string, float64, error) {
	if len(a.Data) == 0 {
		return "", 0, ErrEmptyAudio
	}
	language := a.Language
	if language == "" {
		language = g.DefaultLanguage
	}

	cfg := &speechpb.RecognitionConfig{
		Encoding:                   encodingFor(a.ContentType),
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}
	if cfg.Encoding == speechpb.RecognitionConfig_LINEAR16 {
		cfg.SampleRateHertz = g.SampleRateHz
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: a.Data},
		},
	})
	if err != nil {
		return "", 0, err
	}

	// each result covers a consecutive slice of the audio; join the top alternatives
	var parts []string
	var confSum float64
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 || r.Alternatives[0].Transcript == "" {
			continue
		}
		best := r.Alternatives[0]
		parts = append(parts, strings.TrimSpace(best.Transcript))
		confSum += float64(best.Confidence)
	}
	if len(parts) == 0 {
		return "", 0, nil
	}
	return strings.Join(parts, " "), confSum / float64(len(parts)), nil
}

func encodingFor(contentType string) speechpb.RecognitionConfig_AudioEncoding {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	case strings.Contains(ct, "ogg"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(ct, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(ct, "wav"), strings.Contains(ct, "l16"):
		return speechpb.RecognitionConfig_LINEAR16
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
