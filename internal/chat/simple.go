package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// linePrinter writes new entries and flag changes to a plain writer
type linePrinter struct {
	mu         sync.Mutex
	out        io.Writer
	session    *Session
	lastID     int
	listening  bool
	processing bool
}

func (p *linePrinter) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for _, e := range p.session.Entries() {
		if e.ID <= p.lastID {
			continue
		}
		p.lastID = e.ID
		fmt.Fprintf(p.out, "\n%s (%s):\n%s\n", e.Author(), e.DisplayTime(now), e.Text)
	}

	if listening := p.session.Listening(); listening != p.listening {
		p.listening = listening
		if listening {
			fmt.Fprintln(p.out, "Recording... (press Enter to stop)")
		} else {
			fmt.Fprintln(p.out, "Recording stopped.")
		}
	}
	if processing := p.session.Processing(); processing != p.processing {
		p.processing = processing
		if processing {
			fmt.Fprintln(p.out, "Processing...")
		}
	}
}

// RunSimple runs the line-based chat used when the terminal cannot host the
// full-screen UI. It returns when in is exhausted or the user quits.
func RunSimple(ctx context.Context, session *Session, voice VoiceControl, in io.Reader, out io.Writer) error {
	printer := &linePrinter{out: out, session: session}
	session.OnChange(printer.flush)
	printer.flush()

	fmt.Fprintln(out, "\nType /help for commands.")

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "\n❯ ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			if voice != nil && session.Listening() {
				toggleVoice(ctx, voice, out)
			}
			continue
		}

		if cmd, ok := ParseCommand(input); ok {
			switch cmd {
			case CommandQuit:
				return nil
			case CommandVoice:
				if voice == nil {
					fmt.Fprintln(out, "Voice capture is disabled.")
					continue
				}
				toggleVoice(ctx, voice, out)
			case CommandHelp:
				fmt.Fprintln(out, strings.Join(helpLines(false), "\n"))
			default:
				fmt.Fprintf(out, "Unknown command: %s (try /help)\n", input)
			}
			continue
		}

		session.SendMessage(ctx, input)
	}

	return scanner.Err()
}

func toggleVoice(ctx context.Context, voice VoiceControl, out io.Writer) {
	if err := voice.Toggle(ctx); err != nil {
		fmt.Fprintf(out, "Voice: %v\n", err)
	}
}
