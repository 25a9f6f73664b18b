package controller

import (
	"errors"
	"time"

	"quest_edu_backend/internal/model"
	"quest_edu_backend/internal/service"
	"quest_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestController struct {
	Ledger *service.LedgerService
}

func NewQuestController(ledger *service.LedgerService) *QuestController {
	return &QuestController{Ledger: ledger}
}

// CompleteQuestRequest 站内实时完成一次任务的上报
// swagger:model CompleteQuestRequest
type CompleteQuestRequest struct {
	SourceUnitID string                `json:"sourceUnitId" binding:"required"`
	EventID      string                `json:"eventId"` // 客户端重试时必须复用，留空由服务端生成
	Title        string                `json:"title"`
	Category     model.QuestCategory   `json:"category" binding:"required"`
	Difficulty   model.QuestDifficulty `json:"difficulty" binding:"required"`
	WasCorrect   bool                  `json:"wasCorrect"`
	Coins        int                   `json:"coins"`
	XP           int                   `json:"xp"`
	OccurredAt   *time.Time            `json:"occurredAt"`
}

// @Summary 完成任务并入账
// @Description 记录一次任务完成事件并发放奖励，同一工作单元恰好发放一次。重复投递返回 duplicate 结果，余额不变。
// @Tags 任务账本
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param completion body CompleteQuestRequest true "完成事件"
// @Success 200 {object} util.Response
// @Router /quests/complete [post]
func (c *QuestController) CompleteQuest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CompleteQuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	event := &model.CompletionEvent{
		EventID:      req.EventID,
		LearnerID:    user.UserID,
		SourceUnitID: req.SourceUnitID,
		Origin:       model.OriginInteractive,
		Title:        req.Title,
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		WasCorrect:   req.WasCorrect,
		CoinsAwarded: req.Coins,
		XPAwarded:    req.XP,
	}
	if req.OccurredAt != nil {
		event.OccurredAt = *req.OccurredAt
	}

	result, err := c.Ledger.RecordAndCredit(ctx.Request.Context(), event)
	if err != nil {
		if errors.Is(err, util.ErrInvalidEvent) {
			util.BadRequest(ctx, err.Error())
			return
		}
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		// 存储失败：整体已回滚，客户端携带相同 eventId/sourceUnitId 重试
		util.ServiceUnavailable(ctx)
		return
	}

	util.Success(ctx, result)
}
