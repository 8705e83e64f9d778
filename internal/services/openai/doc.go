// Package openai transcribes audio clips through an OpenAI-compatible
// /audio/transcriptions endpoint using the go-openai client.
//
// Any server that speaks the OpenAI transcription protocol works, including
// self-hosted whisper servers; point base_url at it. The API key falls back
// to OPENAI_API_KEY.
package openai
