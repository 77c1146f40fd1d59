package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	cli "github.com/spf13/pflag"

	"secondbrain/internal/ipc"
)

const usage = `usage: brain-ctl [--socket path] <command> [args]

commands:
  trigger                 listen for one utterance
  say <text...>           handle typed text as an utterance
  transcribe <file>       handle a wav/mp3/ogg recording as an utterance
  upload <file> [mime]    upload a photo or video
  new-chat                start a new chat session
  stop                    stop speaking
`

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath(), "Control socket path")
	cli.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	cli.Parse()

	msg, err := parseCommand(cli.Args())
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		cli.Usage()
		os.Exit(2)
	}

	if err := ipc.Send(*socket, msg); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "brain-daemon:", err)
		os.Exit(1)
	}
}

func parseCommand(args []string) (ipc.ControlMessage, error) {
	if len(args) == 0 {
		return ipc.ControlMessage{}, fmt.Errorf("missing command")
	}

	msg := ipc.ControlMessage{Cmd: args[0]}
	rest := args[1:]

	switch msg.Cmd {
	case ipc.CmdTrigger, ipc.CmdNewChat, ipc.CmdStop:
		if len(rest) > 0 {
			return msg, fmt.Errorf("%s takes no arguments", msg.Cmd)
		}
	case ipc.CmdSay:
		msg.Arg = strings.Join(rest, " ")
		if strings.TrimSpace(msg.Arg) == "" {
			return msg, fmt.Errorf("say needs text")
		}
	case ipc.CmdTranscribe, ipc.CmdUpload:
		if len(rest) == 0 {
			return msg, fmt.Errorf("%s needs a file", msg.Cmd)
		}
		if (msg.Cmd == ipc.CmdTranscribe && len(rest) > 1) || len(rest) > 2 {
			return msg, fmt.Errorf("too many arguments for %s", msg.Cmd)
		}
		// The daemon runs elsewhere, so relative paths would resolve against its cwd.
		abs, err := filepath.Abs(rest[0])
		if err != nil {
			return msg, err
		}
		msg.Arg = abs
		if len(rest) == 2 {
			msg.MIME = rest[1]
		}
	default:
		return msg, fmt.Errorf("unknown command %q", msg.Cmd)
	}
	return msg, nil
}
