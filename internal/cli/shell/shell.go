// Package shell implements the interactive REPL (`nfsbench shell`): a
// readline-driven command loop that issues one blocking NFS request at a
// time against an already-mounted export, for poking at a server by hand
// rather than driving a timed benchmark run.
package shell

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"

	"github.com/marmos91/nfsbench/internal/bench"
	"github.com/marmos91/nfsbench/internal/logger"
	"github.com/marmos91/nfsbench/internal/nfs3"
)

// ErrQuit is returned by a command to end the REPL cleanly.
var ErrQuit = errors.New("shell: quit")

// CallTimeout bounds every request issued from the shell; a hung server
// shouldn't hang the prompt forever.
const CallTimeout = 10 * time.Second

// Run starts the interactive loop against m, blocking until the user quits
// (Ctrl+D, "quit"/"exit") or input is exhausted.
func Run(m *bench.Mount) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "nfsbench> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("shell: init readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintln(rl.Stdout(), "connected. type 'help' for commands.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("shell: read line: %w", err)
		}

		if err := dispatch(rl.Stdout(), m, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintln(rl.Stderr(), "error:", err)
		}
	}
}

// dispatch parses one input line and runs the matching command, writing its
// output to out. It is the REPL's pure core: no readline dependency, so it
// can be exercised directly in tests.
func dispatch(out io.Writer, m *bench.Mount, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return ErrQuit
	case "help":
		printHelp(out)
		return nil
	case "null":
		return cmdNull(out, m)
	case "getattr":
		return cmdGetattr(out, m)
	case "read":
		return cmdRead(out, m, args)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  null                 issue one NFSPROC3_NULL")
	fmt.Fprintln(w, "  getattr              GETATTR on the mounted root handle")
	fmt.Fprintln(w, "  read <offset> <len>  READ <len> bytes at <offset> from the root handle")
	fmt.Fprintln(w, "  quit | exit          leave the shell")
}

func cmdNull(out io.Writer, m *bench.Mount) error {
	start := time.Now()
	payload, err := m.Call(nfs3.ProcNull, nfs3.EncodeNullArgs(), CallTimeout)
	if err != nil {
		return fmt.Errorf("NULL call: %w", err)
	}
	if err := nfs3.DecodeNullReply(payload); err != nil {
		return fmt.Errorf("NULL reply: %w", err)
	}
	fmt.Fprintf(out, "NULL ok (%s)\n", time.Since(start))
	return nil
}

func cmdGetattr(out io.Writer, m *bench.Mount) error {
	req := &nfs3.GetattrRequest{Handle: m.RootHandle}
	args, err := req.Encode()
	if err != nil {
		return err
	}

	start := time.Now()
	payload, err := m.Call(nfs3.ProcGetattr, args, CallTimeout)
	if err != nil {
		return fmt.Errorf("GETATTR call: %w", err)
	}
	resp, err := nfs3.DecodeGetattrResponse(payload)
	if err != nil {
		return fmt.Errorf("GETATTR reply: %w", err)
	}
	if resp.Status != nfs3.NFS3OK {
		return fmt.Errorf("GETATTR: %s", nfs3.StatusString(resp.Status))
	}

	fmt.Fprintf(out, "size=%s (%d bytes) handle=%s (%s)\n",
		humanize.Bytes(resp.Attr.Size), resp.Attr.Size, hex.EncodeToString(m.RootHandle), time.Since(start))
	return nil
}

func cmdRead(out io.Writer, m *bench.Mount, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: read <offset> <len>")
	}
	offset, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid offset %q: %w", args[0], err)
	}
	length, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid length %q: %w", args[1], err)
	}

	req := &nfs3.ReadRequest{Handle: m.RootHandle, Offset: offset, Count: uint32(length)}
	reqArgs, err := req.Encode()
	if err != nil {
		return err
	}

	start := time.Now()
	payload, err := m.Call(nfs3.ProcRead, reqArgs, CallTimeout)
	if err != nil {
		return fmt.Errorf("READ call: %w", err)
	}
	resp, err := nfs3.DecodeReadResponse(payload)
	if err != nil {
		return fmt.Errorf("READ reply: %w", err)
	}
	if resp.Status != nfs3.NFS3OK {
		return fmt.Errorf("READ: %s", nfs3.StatusString(resp.Status))
	}

	fmt.Fprintf(out, "read %s at offset %d, eof=%v (%s)\n",
		humanize.Bytes(uint64(resp.Count)), offset, resp.Eof, time.Since(start))
	return nil
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		logger.Debug("shell: could not resolve home directory for history file", "error", err)
		return ""
	}
	return home + "/.nfsbench_history"
}
