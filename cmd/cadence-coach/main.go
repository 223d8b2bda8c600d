// Command cadence-coach is a terminal client for live voice coaching
// sessions. It opens the microphone and speaker, starts a session against
// the gateway, and walks the user through confirming a workout log when the
// coach proposes one.
//
// Environment variables:
//
//	CADENCE_GATEWAY_URL - gateway base URL (default http://localhost:8080)
//	CADENCE_AUTH_TOKEN  - bearer token for the gateway (required)
//
// Controls:
//
//	s           - stop the current session
//	y / n       - confirm or discard a proposed workout log
//	q           - quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/stridelabs/cadence/pkg/voice/audio"
	"github.com/stridelabs/cadence/pkg/voice/capture"
	"github.com/stridelabs/cadence/pkg/voice/completion"
	"github.com/stridelabs/cadence/pkg/voice/playback"
	"github.com/stridelabs/cadence/pkg/voice/protocol"
	"github.com/stridelabs/cadence/pkg/voice/session"
)

func main() {
	_ = godotenv.Load()

	sessionID := flag.String("session", "", "training session id to coach (optional)")
	flag.Parse()

	gatewayURL := os.Getenv("CADENCE_GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "http://localhost:8080"
	}
	authToken := os.Getenv("CADENCE_AUTH_TOKEN")
	if authToken == "" {
		log.Fatal("CADENCE_AUTH_TOKEN required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	capturePipe := capture.NewPipeline(audio.CaptureSampleRateHz, 1)
	playbackPipe := playback.NewPipeline(audio.DefaultRingCapacity)

	mic, err := capture.OpenDevice(capturePipe)
	if err != nil {
		log.Fatalf("open microphone: %v", err)
	}
	defer mic.Close()
	if err := mic.Start(); err != nil {
		log.Fatalf("start microphone: %v", err)
	}
	defer mic.Stop()

	speaker, err := playback.OpenDevice(playbackPipe)
	if err != nil {
		log.Fatalf("open speaker: %v", err)
	}
	defer speaker.Close()
	speaker.Start()

	drafts := completion.NewHandler(completion.NewHTTPSubmitter(gatewayURL, authToken))

	orc := session.New(
		session.NewHTTPTokenClient(gatewayURL, authToken),
		capturePipe,
		playbackPipe,
		session.Callbacks{
			OnStateChange: func(from, to session.State) {
				fmt.Printf("[%s]\n", to)
			},
			OnTranscript: func(e session.TranscriptEntry) {
				fmt.Printf("%s: %s\n", e.Role, e.Text)
			},
			OnToolCall: func(call protocol.FunctionCall) {
				draft, err := completion.DraftFromCall(*sessionID, call)
				if err != nil {
					fmt.Printf("ignoring tool call: %v\n", err)
					return
				}
				drafts.Propose(*sessionID, draft)
				fmt.Printf("\nCoach wants to log: %s\n", draft.Summary())
				fmt.Println("Confirm? (y/n)")
			},
			OnError: func(err error) {
				fmt.Printf("session error: %v\n", err)
				fmt.Println("Press enter to retry, or q to quit.")
			},
		},
	)

	fmt.Println("Cadence voice coach. Speak when [listening] appears.")
	if err := orc.Start(ctx, *sessionID); err != nil {
		log.Fatalf("start session: %v", err)
	}
	defer orc.Stop()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			orc.Stop()
			return
		default:
		}
		if !scanner.Scan() {
			orc.Stop()
			return
		}
		switch line := strings.ToLower(strings.TrimSpace(scanner.Text())); line {
		case "q", "quit":
			orc.Stop()
			return
		case "s", "stop":
			orc.Stop()
			fmt.Println("Session stopped. Press enter to start again.")
		case "y", "yes":
			if drafts.Pending() == nil {
				fmt.Println("Nothing to confirm.")
				continue
			}
			transcript := orc.Transcript()
			resp, err := drafts.Confirm(ctx, transcript)
			if err != nil {
				fmt.Printf("could not log workout: %v\n", err)
				continue
			}
			fmt.Printf("Workout logged for session %s.\n", resp.SessionID)
		case "n", "no":
			if drafts.Pending() == nil {
				fmt.Println("Nothing to discard.")
				continue
			}
			drafts.Cancel()
			fmt.Println("Discarded.")
		case "":
			if orc.State() == session.StateIdle || orc.State() == session.StateError {
				if err := orc.Start(ctx, *sessionID); err != nil {
					fmt.Printf("start session: %v\n", err)
				}
			}
		default:
			fmt.Println("Commands: s stop, y confirm, n discard, q quit.")
		}
	}
}
