package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleID accepts either a JSON number or a JSON string.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("id must be an integer: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// JudgeRequest is the body of POST /:language/.
type JudgeRequest struct {
	Code          string     `json:"code"`
	TimeLimited   int64      `json:"time_limited"`
	MemoryLimited int64      `json:"memory_limited"`
	ProblemID     FlexibleID `json:"problem_id"`
	SolutionID    FlexibleID `json:"solution_id"`
}

// decodeJudgeRequest also accepts the body double encoded as a JSON string,
// which older clients send.
func decodeJudgeRequest(body []byte) (JudgeRequest, error) {
	var req JudgeRequest
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return req, err
		}
		body = []byte(inner)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

// Usage is reported only for accepted submissions.
type Usage struct {
	TimeUsed   int64 `json:"time_used"`
	MemoryUsed int64 `json:"memory_used"`
}

// JudgeResponse is the verdict as returned to clients.
type JudgeResponse struct {
	Status bool   `json:"status"`
	Msg    string `json:"msg"`
	Data   *Usage `json:"data"`
	Detail string `json:"detail,omitempty"`
}

// LanguageInfo describes one accepted language selector.
type LanguageInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}
