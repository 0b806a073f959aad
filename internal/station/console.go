// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package station

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/session"
)

// ConsoleTransport names sessions attached to the server's own terminal.
const ConsoleTransport = "console"

// Console runs one session over in and out, normally stdin and stdout, and
// shuts the station down when that session ends. EOF on in counts as quit.
// The reader goroutine stays blocked on in until it returns; stdin cannot be
// interrupted.
func (s *Station) Console(ctx context.Context, in io.Reader, out io.Writer) error {
	s.consoles.Add(1)
	defer s.consoles.Done()
	sess := s.Sessions.Connect(ctx, ConsoleTransport, "local")
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			if err := sess.Submit(sc.Text()); err != nil {
				slog.Debug("console input rejected", "error", err)
			}
		}
		// EOF quits after any input still queued.
		if err := sess.Submit("quit"); err != nil {
			s.Sessions.Disconnect(sess, "console closed")
		}
	}()

	err := sess.Deliver(func(msg command.Result) error {
		_, err := io.WriteString(out, session.RenderText(msg))
		return err
	})
	if err != nil {
		s.Sessions.Disconnect(sess, "console write failed")
	}
	<-sess.Done()
	s.Shutdown("console " + sess.Reason())
	return err
}
