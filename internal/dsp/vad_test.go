package dsp

import "testing"

func TestVADDetectsVoicedAfterHysteresis(t *testing.T) {
	cfg := DefaultVADConfig()
	v := NewVAD(cfg)

	loudFrame := sineFrame(440, 44100, 512, 0.5)

	var last Decision
	for i := 0; i < cfg.MinVoicedFrames+1; i++ {
		last = v.Process(loudFrame, 0.35, 300)
	}
	if !last.Voiced {
		t.Errorf("expected voiced decision after %d consistent loud frames", cfg.MinVoicedFrames+1)
	}
	if !v.EverVoiced() {
		t.Errorf("expected EverVoiced to be true once a voiced run is accepted")
	}
}

func TestVADStaysSilentForQuietFrames(t *testing.T) {
	cfg := DefaultVADConfig()
	v := NewVAD(cfg)

	silence := make([]float64, 512)
	var last Decision
	for i := 0; i < cfg.MinVoicedFrames+2; i++ {
		last = v.Process(silence, 0, 0)
	}
	if last.Voiced {
		t.Errorf("expected unvoiced decision for sustained silence")
	}
	if v.EverVoiced() {
		t.Errorf("did not expect EverVoiced for a session that never exceeded threshold")
	}
}

func TestVADSingleLoudFrameDoesNotFlipDecision(t *testing.T) {
	cfg := DefaultVADConfig()
	v := NewVAD(cfg)
	silence := make([]float64, 512)
	loud := sineFrame(440, 44100, 512, 0.9)

	for i := 0; i < cfg.MinVoicedFrames+2; i++ {
		v.Process(silence, 0, 0)
	}
	d := v.Process(loud, 0.5, 300)
	if d.Voiced {
		t.Errorf("expected a single loud frame to not immediately flip an unvoiced run to voiced")
	}
}
