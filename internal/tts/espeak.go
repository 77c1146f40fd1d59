package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
tts_init(const char *lang)
{
	if (espeak_Initialize(AUDIO_OUTPUT_PLAYBACK, 500, NULL, 0) < 0)
	{ return -1; }

	espeak_VOICE voice;
	memset(&voice, 0, sizeof(voice));
	voice.languages = lang;
	if (espeak_SetVoiceByProperties(&voice) != EE_OK)
	{ return -2; }

	return 0;
}

static int
tts_say(const char *text, int flush)
{
	if (!text)
	{ return -1; }

	if (flush)
	{ espeak_Cancel(); }

	if (espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -2; }

	return 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// Speaker plays text through espeak-ng. Speak returns as soon as the text is
// queued; playback happens in espeak's own thread.
type Speaker struct {
	mu     sync.Mutex
	closed bool
}

func NewSpeaker(language string) (*Speaker, error) {
	if language == "" || language == "auto" {
		language = "en"
	}

	clang := C.CString(language)
	defer C.free(unsafe.Pointer(clang))

	if rc := C.tts_init(clang); rc != 0 {
		return nil, fmt.Errorf("espeak init failed: %d", int(rc))
	}
	return &Speaker{}, nil
}

// Speak queues text. With flush set, anything still playing is dropped first.
func (s *Speaker) Speak(text string, flush bool) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	var f C.int
	if flush {
		f = 1
	}
	if rc := C.tts_say(ctext, f); rc != 0 {
		return fmt.Errorf("espeak synth failed: %d", int(rc))
	}
	return nil
}

// Stop drops any queued or playing speech.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		C.espeak_Cancel()
	}
}

func (s *Speaker) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && C.espeak_IsPlaying() != 0
}

func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	C.espeak_Terminate()
}
