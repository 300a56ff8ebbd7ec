package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/mcwatch/internal/stop"
)

// stopSignals are the OS signals treated as a stop request.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// watchSignals sets sig on the first SIGINT or SIGTERM and calls force on
// the next one, so a stuck shutdown can be abandoned. The returned function
// stops watching.
func watchSignals(sig *stop.Signal, force func()) func() {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, stopSignals...)
	return relaySignals(ch, sig, force, func() { signal.Stop(ch) })
}

// relaySignals does the work of watchSignals for any channel.
func relaySignals(ch <-chan os.Signal, sig *stop.Signal, force func(), release func()) func() {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		received := 0
		for {
			select {
			case <-done:
				return
			case <-ch:
				received++
				if received == 1 {
					sig.Set(stop.ReasonHostSignal)
					continue
				}
				force()
			}
		}
	}()

	return func() {
		release()
		close(done)
		<-exited
	}
}
