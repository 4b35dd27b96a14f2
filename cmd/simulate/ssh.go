package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gliderlabs/ssh"
)

// serveScoreboard exposes the scoreboard read-only over ssh until ctx is
// done. Every session gets the current table and is closed.
func serveScoreboard(ctx context.Context, addr, hostKey string, board *scoreboard) error {
	server := &ssh.Server{
		Addr: addr,
		Handler: func(sess ssh.Session) {
			log.Printf("simulate: scoreboard viewer %q from %s", sess.User(), sess.RemoteAddr())
			if _, err := board.WriteTo(sess); err != nil {
				log.Printf("simulate: scoreboard write: %v", err)
			}
		},
	}
	if hostKey != "" {
		if err := server.SetOption(ssh.HostKeyFile(hostKey)); err != nil {
			return fmt.Errorf("set host key: %w", err)
		}
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("simulate: scoreboard listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}
