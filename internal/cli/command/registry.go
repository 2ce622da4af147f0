package command

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Registry returns all CLI commands keyed by name.
func Registry() map[string]Command {
	commands := []Command{
		{
			Name:         "submit",
			Method:       "POST",
			PathTemplate: "/:language/",
			Args:         []string{"language", "file"},
			Usage:        "submit <language> <file> problem=<id> [time=<ms>] [memory=<kb>] [solution=<id>]",
			Fields: []Field{
				{Name: "language", Prompt: "language", Type: FieldString, Required: true},
				{Name: "file", Aliases: []string{"source_file"}, Prompt: "source file", Type: FieldFile, Required: true},
				{Name: "problem_id", Aliases: []string{"problem"}, Prompt: "problem id", Type: FieldString, Required: true},
				{Name: "time_limited", Aliases: []string{"time"}, Prompt: "time limit (ms)", Type: FieldInt64},
				{Name: "memory_limited", Aliases: []string{"memory"}, Prompt: "memory limit (KB)", Type: FieldInt64},
				{Name: "solution_id", Aliases: []string{"solution"}, Prompt: "solution id", Type: FieldString},
			},
		},
		{
			Name:         "languages",
			Method:       "GET",
			PathTemplate: "/languages",
			Usage:        "languages",
		},
		{
			Name:         "health",
			Method:       "GET",
			PathTemplate: "/healthz",
			Usage:        "health",
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Name] = cmd
	}
	return result
}

// BuildRequest creates HTTP request spec based on command.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}

	var body []byte
	if cmd.Method != "GET" && cmd.Method != "DELETE" {
		payload, err := buildPayload(cmd, params)
		if err != nil {
			return RequestSpec{}, err
		}
		if payload != nil {
			body, err = json.Marshal(payload)
			if err != nil {
				return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
			}
		}
	}

	return RequestSpec{
		Method:  cmd.Method,
		Path:    path,
		Headers: map[string]string{},
		Body:    body,
	}, nil
}

func buildPath(template string, params Params) (string, error) {
	segments := strings.Split(template, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		key := strings.TrimPrefix(segment, ":")
		value := params.Get(key)
		if value == "" {
			return "", fmt.Errorf("missing path parameter: %s", key)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}

func buildPayload(cmd Command, params Params) (interface{}, error) {
	switch cmd.Name {
	case "submit":
		return buildSubmitPayload(params)
	}
	return nil, nil
}

func buildSubmitPayload(params Params) (interface{}, error) {
	if params.Get("file") == "" {
		return nil, fmt.Errorf("source file is required")
	}
	code, err := ReadFile(params.Get("file"))
	if err != nil {
		return nil, err
	}
	timeLimit, err := ParseInt64(params.Get("time_limited"))
	if err != nil {
		return nil, fmt.Errorf("invalid time_limited: %w", err)
	}
	memoryLimit, err := ParseInt64(params.Get("memory_limited"))
	if err != nil {
		return nil, fmt.Errorf("invalid memory_limited: %w", err)
	}
	problemID := params.Get("problem_id")
	if problemID == "" {
		return nil, fmt.Errorf("problem_id is required")
	}

	payload := map[string]interface{}{
		"code":           code,
		"time_limited":   timeLimit,
		"memory_limited": memoryLimit,
		"problem_id":     idValue(problemID),
	}
	if params.Get("solution_id") != "" {
		payload["solution_id"] = idValue(params.Get("solution_id"))
	}
	return payload, nil
}

// idValue sends numeric ids as JSON numbers, like the judge's existing clients do.
func idValue(raw string) interface{} {
	if n, err := ParseInt64(raw); err == nil {
		return n
	}
	return raw
}
