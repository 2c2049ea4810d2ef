package transcribe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTranscribe(t *testing.T) {
	var gotLanguage, gotFilename, gotAudio string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotLanguage = r.FormValue("language")

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		gotAudio = string(data)

		json.NewEncoder(w).Encode(Result{
			Transcription: "подозреваемый отрицает причастность",
			Filename:      header.Filename,
			Language:      gotLanguage,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Minute)
	result, err := client.Transcribe(context.Background(), Request{
		Audio:    strings.NewReader("fake audio bytes"),
		Filename: "audio-123.wav",
		Language: "tg-TJ",
	})
	require.NoError(t, err)

	assert.Equal(t, "tg-TJ", gotLanguage)
	assert.Equal(t, "audio-123.wav", gotFilename)
	assert.Equal(t, "fake audio bytes", gotAudio)
	assert.Equal(t, "подозреваемый отрицает причастность", result.Transcription)
}

func TestClientDefaultsLanguage(t *testing.T) {
	var gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLanguage = r.FormValue("language")
		json.NewEncoder(w).Encode(Result{Transcription: "ok", Language: gotLanguage})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Minute)
	_, err := client.Transcribe(context.Background(), Request{
		Audio:    strings.NewReader("x"),
		Filename: "a.wav",
	})
	require.NoError(t, err)
	assert.Equal(t, "ru-RU", gotLanguage)
}

func TestClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Error processing audio"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Minute)
	_, err := client.Transcribe(context.Background(), Request{
		Audio:    strings.NewReader("x"),
		Filename: "a.wav",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClientUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", time.Second)
	_, err := client.Transcribe(context.Background(), Request{
		Audio:    strings.NewReader("x"),
		Filename: "a.wav",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestSimulator(t *testing.T) {
	sim := NewSimulator()
	result, err := sim.Transcribe(context.Background(), Request{
		Audio:           strings.NewReader("ignored"),
		Filename:        "audio-1.wav",
		InterrogationID: "rec-42",
		Suspect:         "Ivanov I.I.",
	})
	require.NoError(t, err)

	assert.Contains(t, result.Transcription, "interrogation rec-42")
	assert.Contains(t, result.Transcription, "My name is Ivanov I.I.")
	assert.Contains(t, result.Transcription, "[00:00:01] Officer:")
	assert.Equal(t, "audio-1.wav", result.Filename)
	assert.Equal(t, "ru-RU", result.Language)
}
