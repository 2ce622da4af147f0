package controller

import (
	"context"
	"net/http"

	"github.com/Gooit/Interpreter/internal/judge/language"
	"github.com/Gooit/Interpreter/internal/judge/status"
	"github.com/Gooit/Interpreter/pkg/utils/contextkey"
	"github.com/Gooit/Interpreter/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Judger is the service behind the controller.
type Judger interface {
	Judge(ctx context.Context, sub language.Submission) (status.Verdict, error)
	Languages() []language.Spec
}

// JudgeController handles judge HTTP endpoints.
type JudgeController struct {
	judger Judger
}

// NewJudgeController creates a new controller.
func NewJudgeController(judger Judger) *JudgeController {
	return &JudgeController{judger: judger}
}

// Submit judges the posted source with the language named in the path.
func (h *JudgeController) Submit(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	req, err := decodeJudgeRequest(body)
	if err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	ctx := c.Request.Context()
	if req.SolutionID != "" {
		ctx = context.WithValue(ctx, contextkey.SolutionID, string(req.SolutionID))
	}
	verdict, err := h.judger.Judge(ctx, language.Submission{
		Language:      c.Param("language"),
		Source:        req.Code,
		ProblemID:     string(req.ProblemID),
		SolutionID:    string(req.SolutionID),
		TimeLimitMs:   req.TimeLimited,
		MemoryLimitKB: req.MemoryLimited,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toJudgeResponse(verdict))
}

// Languages lists the accepted language selectors.
func (h *JudgeController) Languages(c *gin.Context) {
	specs := h.judger.Languages()
	out := make([]LanguageInfo, 0, len(specs))
	for _, s := range specs {
		out = append(out, LanguageInfo{ID: s.ID, Name: s.Name, Aliases: s.Aliases})
	}
	response.Success(c, out)
}

func toJudgeResponse(v status.Verdict) JudgeResponse {
	resp := JudgeResponse{
		Status: v.Accepted,
		Msg:    v.Status.String(),
		Detail: v.Detail,
	}
	// Infrastructure causes name host paths; they stay in the service log.
	if v.Status == status.SystemError {
		resp.Detail = ""
	}
	if v.Accepted && v.MaxTimeMs != nil && v.MaxMemoryKB != nil {
		resp.Data = &Usage{TimeUsed: *v.MaxTimeMs, MemoryUsed: *v.MaxMemoryKB}
	}
	return resp
}
