// Command gamecalls-bench drives the engine end to end against two WAV
// files — a master call and a user attempt — and prints the resulting
// EnhancedSummary as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/huntmasteracademy/gamecalls-engine/internal/loader"
	"github.com/huntmasteracademy/gamecalls-engine/pkg/engine"
)

const version = "0.0.1"

var CLI struct {
	Master  string `arg:"" name:"master" help:"Master-call WAV file" type:"existingfile"`
	User    string `arg:"" name:"user" help:"User-attempt WAV file" type:"existingfile"`
	Chunk   int    `help:"Chunk size in samples fed to processChunk per call" default:"4096"`
	Version bool   `help:"Show version information" short:"v"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("gamecalls-bench"),
		kong.Description("Score a user attempt against a master call and print the finalized summary."),
		kong.UsageOnError(),
	)

	if CLI.Version {
		fmt.Printf("gamecalls-bench version %s\n", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	master, err := loader.Load(CLI.Master)
	if err != nil {
		return fmt.Errorf("load master: %w", err)
	}
	user, err := loader.Load(CLI.User)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if master.SampleRate != user.SampleRate {
		return fmt.Errorf("master sample rate %d does not match user sample rate %d", master.SampleRate, user.SampleRate)
	}

	eng, err := engine.New(engine.WithMasterCallsPath("."))
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	id, status, err := eng.CreateSession(master.SampleRate)
	if err != nil {
		return fmt.Errorf("create session (%s): %w", status, err)
	}
	defer eng.DestroySession(id)

	if status, err := eng.LoadMaster(id, CLI.Master); err != nil {
		return fmt.Errorf("load master into session (%s): %w", status, err)
	}

	for offset := 0; offset < len(user.Samples); offset += CLI.Chunk {
		end := offset + CLI.Chunk
		if end > len(user.Samples) {
			end = len(user.Samples)
		}
		if _, status, err := eng.ProcessChunk(id, user.Samples[offset:end]); err != nil {
			return fmt.Errorf("process chunk (%s): %w", status, err)
		}
	}

	realtime, _, err := eng.GetRealtimeFeedback(id)
	if err != nil {
		return fmt.Errorf("get realtime feedback: %w", err)
	}
	fmt.Fprintf(os.Stderr, "realtime: overall=%.3f confidence=%.3f reliable=%v\n",
		realtime.Overall, realtime.Confidence, realtime.IsReliable)

	summary, status, err := eng.FinalizeSessionAnalysis(id)
	if err != nil && status != engine.StatusAlreadyFinalized {
		return fmt.Errorf("finalize (%s): %w", status, err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
