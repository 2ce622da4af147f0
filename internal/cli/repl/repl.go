package repl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Gooit/Interpreter/internal/cli/command"
	"github.com/Gooit/Interpreter/internal/cli/config"
	httpclient "github.com/Gooit/Interpreter/internal/cli/http"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

const defaultPrompt = "judge> "

// Session holds REPL state.
type Session struct {
	client     *httpclient.Client
	commands   map[string]command.Command
	defaults   config.Defaults
	prettyJSON bool
	out        io.Writer
	// ask reads a value for a missing required field; nil disables prompting.
	ask func(label string) (string, error)
}

func New(client *httpclient.Client, commands map[string]command.Command, defaults config.Defaults, prettyJSON bool, out io.Writer) *Session {
	return &Session{
		client:     client,
		commands:   commands,
		defaults:   defaults,
		prettyJSON: prettyJSON,
		out:        out,
	}
}

// Run reads lines until exit, EOF, or an interrupt on an empty line.
func (s *Session) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          defaultPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s.ask = func(label string) (string, error) {
		rl.SetPrompt(label + ": ")
		defer rl.SetPrompt(defaultPrompt)
		line, err := rl.Readline()
		if err != nil {
			return "", fmt.Errorf("read input failed: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		if !s.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute handles one input line. It returns false when the session should end.
func (s *Session) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	switch line {
	case "exit", "quit":
		s.printLine("bye")
		return false
	case "help":
		s.printHelp()
		return true
	}
	if strings.HasPrefix(line, "set ") {
		s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
		return true
	}
	if line == "show" || strings.HasPrefix(line, "show ") {
		s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show")))
		return true
	}
	if err := s.handleCommand(ctx, line); err != nil {
		s.printLine("error: %v", err)
	}
	return true
}

func (s *Session) handleSet(args string) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		s.printLine("usage: set base|timeout|time|memory <value>")
		return
	}
	if len(parts) < 2 {
		s.printLine("usage: set %s <value>", parts[0])
		return
	}
	switch parts[0] {
	case "base":
		s.client.SetBaseURL(parts[1])
		s.printLine("base set to %s", s.client.BaseURL())
	case "timeout":
		dur, err := time.ParseDuration(parts[1])
		if err != nil || dur <= 0 {
			s.printLine("invalid duration: %s", parts[1])
			return
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
	case "time", "memory":
		n, err := command.ParseInt64(parts[1])
		if err != nil || n <= 0 {
			s.printLine("invalid %s limit: %s", parts[0], parts[1])
			return
		}
		if parts[0] == "time" {
			s.defaults.TimeLimitMs = n
		} else {
			s.defaults.MemoryLimitKB = n
		}
		s.printLine("default %s limit set to %d", parts[0], n)
	default:
		s.printLine("unknown set command")
	}
}

func (s *Session) handleShow(args string) {
	switch args {
	case "config", "":
		s.printLine("base: %s", s.client.BaseURL())
		s.printLine("timeout: %s", s.client.Timeout())
		s.printLine("default time limit: %dms", s.defaults.TimeLimitMs)
		s.printLine("default memory limit: %dKB", s.defaults.MemoryLimitKB)
	default:
		s.printLine("usage: show config")
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}
	cmd, ok := s.commands[tokens[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", tokens[0])
	}
	params, err := command.ParseArgs(cmd, tokens[1:])
	if err != nil {
		return err
	}

	s.applyDefaults(cmd, params)
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Headers, req.Body)
	if err != nil {
		return err
	}
	s.renderResponse(cmd, resp)
	return nil
}

func (s *Session) applyDefaults(cmd command.Command, params command.Params) {
	if cmd.Name != "submit" {
		return
	}
	if params.Get("time_limited") == "" {
		params.Set("time_limited", fmt.Sprint(s.defaults.TimeLimitMs))
	}
	if params.Get("memory_limited") == "" {
		params.Set("memory_limited", fmt.Sprint(s.defaults.MemoryLimitKB))
	}
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	for _, field := range cmd.Fields {
		if !field.Required || params.Get(field.Name) != "" {
			continue
		}
		if s.ask == nil {
			return fmt.Errorf("missing %s, usage: %s", field.Name, cmd.Usage)
		}
		value, err := s.ask(field.Prompt)
		if err != nil {
			return err
		}
		params.Set(field.Name, value)
	}
	return nil
}

// verdictBody mirrors the judge's verdict response.
type verdictBody struct {
	Status bool   `json:"status"`
	Msg    string `json:"msg"`
	Detail string `json:"detail"`
	Data   *struct {
		TimeUsed   int64 `json:"time_used"`
		MemoryUsed int64 `json:"memory_used"`
	} `json:"data"`
}

func (s *Session) renderResponse(cmd command.Command, resp httpclient.ResponseInfo) {
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration)
	if len(resp.Body) == 0 {
		return
	}
	if cmd.Name == "submit" && resp.StatusCode == 200 {
		var v verdictBody
		if err := json.Unmarshal(resp.Body, &v); err == nil && v.Msg != "" {
			if v.Data != nil {
				s.printLine("verdict: %s (time %dms, memory %dKB)", v.Msg, v.Data.TimeUsed, v.Data.MemoryUsed)
			} else {
				s.printLine("verdict: %s", v.Msg)
			}
			if v.Detail != "" {
				s.printLine("%s", v.Detail)
			}
			return
		}
	}
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", string(formatted))
			return
		}
	}
	s.printLine("%s", string(resp.Body))
}

func (s *Session) completer() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("show", readline.PcItem("config")),
		readline.PcItem("set",
			readline.PcItem("base"),
			readline.PcItem("timeout"),
			readline.PcItem("time"),
			readline.PcItem("memory"),
		),
	}
	for _, name := range s.commandNames() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (s *Session) commandNames() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	for _, name := range s.commandNames() {
		s.printLine("  %s", s.commands[name].Usage)
	}
	s.printLine("system: help | exit | set base|timeout|time|memory <value> | show config")
	s.printLine("examples:")
	s.printLine("  submit gcc ./main.c problem=1001")
	s.printLine("  submit python ./a.py problem=1001 time=2000 memory=131072 solution=42")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
