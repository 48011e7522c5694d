package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gorilla/websocket"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

// readEvents decodes progress events from conn until it fails. The error is
// available on the second channel once the first is closed.
func readEvents(conn *websocket.Conn) (<-chan domain.ProgressEvent, <-chan error) {
	events := make(chan domain.ProgressEvent, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		for {
			var event domain.ProgressEvent
			if err := conn.ReadJSON(&event); err != nil {
				errs <- err
				return
			}
			events <- event
		}
	}()

	return events, errs
}

// progressPrinter renders events; percent updates overwrite each other
type progressPrinter struct {
	out         io.Writer
	midProgress bool
}

func (p *progressPrinter) print(event domain.ProgressEvent) {
	if event.Kind == domain.EventPercent {
		fmt.Fprintf(p.out, "\r  %5.1f%%  %s", event.Percent, event.Track)
		p.midProgress = true
		return
	}
	if p.midProgress {
		fmt.Fprintln(p.out)
		p.midProgress = false
	}

	switch event.Kind {
	case domain.EventStderr:
		fmt.Fprintf(p.out, "  [stderr] %s\n", event.Message)
	case domain.EventAdvisory:
		fmt.Fprintf(p.out, "  ! %s\n", event.Message)
	default:
		fmt.Fprintln(p.out, event.Message)
	}
}

// followSession prints the events of one session until it settles. The first
// interrupt asks the server to stop the download; the session still settles
// normally afterwards.
func followSession(
	events <-chan domain.ProgressEvent,
	errs <-chan error,
	sessionID string,
	out io.Writer,
	interrupt <-chan os.Signal,
	stop func() error,
) (domain.ProgressEvent, error) {
	printer := &progressPrinter{out: out}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return domain.ProgressEvent{}, fmt.Errorf("progress stream closed: %w", <-errs)
			}
			if event.SessionID != sessionID {
				continue
			}
			printer.print(event)
			if event.Kind == domain.EventSettled {
				return event, nil
			}

		case <-interrupt:
			interrupt = nil
			fmt.Fprintln(out, "Stopping download...")
			if err := stop(); err != nil {
				fmt.Fprintf(out, "Failed to stop: %v\n", err)
			}
		}
	}
}
